// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/danielhkuo/sealed-survey/auth"
	"github.com/danielhkuo/sealed-survey/cliparse"
	"github.com/danielhkuo/sealed-survey/db"
	"github.com/danielhkuo/sealed-survey/fhe"
	"github.com/danielhkuo/sealed-survey/inputproof"
	"github.com/danielhkuo/sealed-survey/ledger"
	"github.com/danielhkuo/sealed-survey/survey"
)

// TestKeySeed derives the key holder's secret in tests.
const TestKeySeed = "test-key-seed"

// TestDlogTable covers every count a test can produce.
var TestDlogTable = fhe.NewDlogTable(1 << 10)

// SetupTestDB creates a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseType:   db.TypeSQLite,
		DatabaseURL:    ":memory:",
		KeySeed:        TestKeySeed,
		ProtocolID:     inputproof.ProtocolElGamalRistretto255,
		DecryptWorkers: 1,
		MaxTally:       1 << 10,
		MaxOptions:     16,
	}
}

// Fixture is a survey engine over an in-memory database, configured with
// the built-in five questions.
type Fixture struct {
	DB          *sql.DB
	Key         *fhe.SecretKey
	Coprocessor *fhe.Coprocessor
	Ledger      *ledger.Ledger
	Engine      *survey.Engine
}

// NewFixture builds a fresh engine with the default questions.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	return NewFixtureWithQuestions(t, survey.DefaultQuestions())
}

func NewFixtureWithQuestions(t *testing.T, questions []survey.Question) *Fixture {
	t.Helper()

	conn := SetupTestDB(t)
	key := fhe.DeriveSecretKey([]byte(TestKeySeed))
	cop := fhe.NewCoprocessor(fhe.NewSQLStore(conn), key)
	l := ledger.New(conn)

	registry, err := survey.NewRegistry(questions, 16)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	engine, err := survey.New(context.Background(), survey.Config{
		Registry:    registry,
		Coprocessor: cop,
		Ledger:      l,
		Protocol:    inputproof.ProtocolElGamalRistretto255,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	return &Fixture{DB: conn, Key: key, Coprocessor: cop, Ledger: l, Engine: engine}
}

// Participant is a test identity with a signing key.
type Participant struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

func NewParticipant(t *testing.T) Participant {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate participant key: %v", err)
	}
	return Participant{Key: key, Address: crypto.PubkeyToAddress(key.PublicKey)}
}

// Seal encrypts choice for p on question id of this fixture's deployment.
func (f *Fixture) Seal(t *testing.T, p Participant, id, choice int) inputproof.Sealed {
	t.Helper()

	n, err := f.Engine.GetOptionCount(id)
	if err != nil {
		t.Fatalf("Failed to read option count: %v", err)
	}
	dep := f.Engine.Deployment()
	sealed, err := inputproof.Seal(rand.Reader, dep.PublicKey, inputproof.Binding{
		Protocol:  f.Engine.ConfidentialProtocolID(),
		Instance:  dep.Instance,
		Submitter: p.Address,
	}, choice, n)
	if err != nil {
		t.Fatalf("Failed to seal answer: %v", err)
	}
	return sealed
}

// Submit seals and submits choice, failing the test on error.
func (f *Fixture) Submit(t *testing.T, p Participant, id, choice int) {
	t.Helper()
	if err := f.Engine.SubmitAnswer(context.Background(), p.Address, id, f.Seal(t, p, id, choice)); err != nil {
		t.Fatalf("SubmitAnswer(%d, %d) failed: %v", id, choice, err)
	}
}

// DecryptHandles decrypts handles with the key holder's secret, ignoring the
// public decryption ACL.
func (f *Fixture) DecryptHandles(t *testing.T, handles []fhe.Handle) []uint64 {
	t.Helper()

	store := fhe.NewSQLStore(f.DB)
	out := make([]uint64, len(handles))
	for i, h := range handles {
		rec, err := store.Get(context.Background(), h)
		if err != nil {
			t.Fatalf("Failed to load ciphertext %s: %v", h.Hex(), err)
		}
		v, err := f.Key.Decrypt(rec.Ciphertext, TestDlogTable)
		if err != nil {
			t.Fatalf("Failed to decrypt %s: %v", h.Hex(), err)
		}
		out[i] = v
	}
	return out
}

// Counts decrypts the current counters of question id.
func (f *Fixture) Counts(t *testing.T, id int) []uint64 {
	t.Helper()
	handles, err := f.Engine.GetEncryptedCounts(context.Background(), id)
	if err != nil {
		t.Fatalf("GetEncryptedCounts(%d) failed: %v", id, err)
	}
	return f.DecryptHandles(t, handles)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeSignedRequest creates an HTTP test request signed by p
func MakeSignedRequest(t *testing.T, p Participant, method, path string, body interface{}) *http.Request {
	t.Helper()

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	sig, err := auth.SignRequest(p.Key, method, path, raw)
	if err != nil {
		t.Fatalf("Failed to sign request: %v", err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.SignatureHeader, sig)
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
