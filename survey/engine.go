// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/sealed-survey/fhe"
	"github.com/danielhkuo/sealed-survey/inputproof"
	"github.com/danielhkuo/sealed-survey/ledger"
)

// Event kinds emitted by the engine.
const (
	EventAnswerSubmitted   = "AnswerSubmitted"
	EventResultsRequested  = "ResultsRequested"
	EventResultsMadePublic = "ResultsMadePublic"
)

type AnswerSubmitted struct {
	Participant common.Address `json:"participant"`
	QuestionID  int            `json:"question_id"`
}

type ResultsRequested struct {
	Requester  common.Address `json:"requester"`
	QuestionID int            `json:"question_id"`
}

type ResultsMadePublic struct {
	QuestionID int          `json:"question_id"`
	Handles    []fhe.Handle `json:"handles"`
}

// Config wires an Engine to its collaborators.
type Config struct {
	Registry    *Registry
	Coprocessor *fhe.Coprocessor
	Ledger      *ledger.Ledger

	// Protocol is the only encryption protocol id accepted on input.
	Protocol uint8

	// Instance pins the deployment address. Zero means load the stored one
	// or generate it on first start.
	Instance common.Address
}

// Engine is the confidential survey: it accepts sealed answers at most once
// per participant and question, folds them into encrypted counters and, on
// request, authorizes those counters for public decryption.
type Engine struct {
	registry   *Registry
	cop        *fhe.Coprocessor
	ledger     *ledger.Ledger
	verifier   *inputproof.Verifier
	deployment Deployment
}

// New records the deployment and creates zero counters for every question
// that has none.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Registry == nil || cfg.Coprocessor == nil || cfg.Ledger == nil {
		return nil, errors.New("registry, coprocessor and ledger are required")
	}

	e := &Engine{
		registry: cfg.Registry,
		cop:      cfg.Coprocessor,
		ledger:   cfg.Ledger,
		verifier: inputproof.NewVerifier(cfg.Coprocessor.PublicKey(), cfg.Protocol),
	}

	_, err := e.ledger.Execute(ctx, common.Address{}, func(u *ledger.Unit) error {
		dep, err := ensureDeployment(u.Context(), u.Tx(), Deployment{
			Instance:  cfg.Instance,
			Protocol:  cfg.Protocol,
			PublicKey: cfg.Coprocessor.PublicKey(),
		}, u.Time())
		if err != nil {
			return err
		}
		e.deployment = dep

		cop := e.cop.WithStore(fhe.NewSQLStore(u.Tx()))
		for id := 0; id < e.registry.Count(); id++ {
			n, _ := e.registry.OptionCount(id)
			if err := initCounters(u.Context(), u.Tx(), cop, id, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize survey: %w", err)
	}

	return e, nil
}

func (e *Engine) Deployment() Deployment {
	return e.deployment
}

// ConfidentialProtocolID is the protocol id sealed answers must carry.
func (e *Engine) ConfidentialProtocolID() uint8 {
	return e.verifier.Protocol()
}

func (e *Engine) GetQuestion(id int) (Question, error) {
	return e.registry.Question(id)
}

func (e *Engine) GetOptionCount(id int) (int, error) {
	return e.registry.OptionCount(id)
}

func (e *Engine) GetQuestionCount() int {
	return e.registry.Count()
}

func (e *Engine) Questions() []Question {
	return e.registry.All()
}

func (e *Engine) HasAnswered(ctx context.Context, participant common.Address, id int) (bool, error) {
	if _, err := e.registry.OptionCount(id); err != nil {
		return false, err
	}
	return hasAnswered(ctx, e.ledger.DB(), participant, id)
}

// SubmitAnswer verifies a sealed choice from caller and, in one unit of work,
// marks caller as having answered and adds the choice to the counters.
// Nothing is written unless every step succeeds.
func (e *Engine) SubmitAnswer(ctx context.Context, caller common.Address, id int, in inputproof.Sealed) error {
	n, err := e.registry.OptionCount(id)
	if err != nil {
		return err
	}

	ct, err := e.verifier.Verify(in, caller, e.deployment.Instance, n)
	if err != nil {
		return err
	}

	_, err = e.ledger.Execute(ctx, caller, func(u *ledger.Unit) error {
		if err := recordAnswer(u.Context(), u.Tx(), u.Caller(), id, u.Time()); err != nil {
			return err
		}

		cop := e.cop.WithStore(fhe.NewSQLStore(u.Tx()))
		choice, err := cop.Ingest(u.Context(), ct)
		if err != nil {
			return fmt.Errorf("failed to ingest answer: %w", err)
		}
		if err := applyVote(u.Context(), u.Tx(), cop, id, choice); err != nil {
			return err
		}

		return u.Emit(EventAnswerSubmitted, id, AnswerSubmitted{Participant: u.Caller(), QuestionID: id})
	})
	if err != nil {
		return err
	}

	slog.Info("answer submitted", "question_id", id, "participant", caller.Hex())
	return nil
}

// GetEncryptedCounts returns the current counter handles of a question,
// ordered by option index.
func (e *Engine) GetEncryptedCounts(ctx context.Context, id int) ([]fhe.Handle, error) {
	if _, err := e.registry.OptionCount(id); err != nil {
		return nil, err
	}
	return counters(ctx, e.ledger.DB(), id)
}

// RequestPublicResults authorizes public decryption of a question's counters
// and returns their handles. Only the first call grants anything; later calls
// return the same handles.
func (e *Engine) RequestPublicResults(ctx context.Context, caller common.Address, id int) ([]fhe.Handle, error) {
	state, err := e.RequestReveal(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return state.Handles, nil
}

// RequestReveal is RequestPublicResults returning the whole reveal state as
// it stands when the unit commits, including the first requester.
func (e *Engine) RequestReveal(ctx context.Context, caller common.Address, id int) (RevealState, error) {
	if _, err := e.registry.OptionCount(id); err != nil {
		return RevealState{}, err
	}

	var result RevealState
	_, err := e.ledger.Execute(ctx, caller, func(u *ledger.Unit) error {
		state, err := loadReveal(u.Context(), u.Tx(), id)
		if err != nil {
			return err
		}

		if err := u.Emit(EventResultsRequested, id, ResultsRequested{Requester: u.Caller(), QuestionID: id}); err != nil {
			return err
		}

		if state.Status == StatusPubliclyRequested {
			result = state
			return nil
		}

		current, err := counters(u.Context(), u.Tx(), id)
		if err != nil {
			return err
		}
		cop := e.cop.WithStore(fhe.NewSQLStore(u.Tx()))
		for _, h := range current {
			if err := cop.AllowPublicDecryption(u.Context(), h); err != nil {
				return fmt.Errorf("failed to authorize counter: %w", err)
			}
		}

		revealed := RevealState{
			Status:      StatusPubliclyRequested,
			RequestedBy: u.Caller(),
			RequestedAt: time.UnixMilli(u.Time().UnixMilli()), // stored precision
			Handles:     current,
		}
		if err := recordReveal(u.Context(), u.Tx(), id, revealed); err != nil {
			return err
		}

		result = revealed
		return u.Emit(EventResultsMadePublic, id, ResultsMadePublic{QuestionID: id, Handles: current})
	})
	if err != nil {
		return RevealState{}, err
	}

	return result, nil
}

// RevealState reports whether a question's counts were made public.
func (e *Engine) RevealState(ctx context.Context, id int) (RevealState, error) {
	if _, err := e.registry.OptionCount(id); err != nil {
		return RevealState{}, err
	}
	return loadReveal(ctx, e.ledger.DB(), id)
}
