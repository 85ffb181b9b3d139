package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/sealed-survey/auth"
	"github.com/danielhkuo/sealed-survey/cliparse"
	"github.com/danielhkuo/sealed-survey/db"
	"github.com/danielhkuo/sealed-survey/decryption"
	"github.com/danielhkuo/sealed-survey/fhe"
	"github.com/danielhkuo/sealed-survey/ledger"
	"github.com/danielhkuo/sealed-survey/middleware"
	"github.com/danielhkuo/sealed-survey/router"
	"github.com/danielhkuo/sealed-survey/survey"
)

// decryptQueueSize bounds requests waiting for a decryption worker.
const decryptQueueSize = 64

// eventBuffer is how far the event logger may fall behind before it drops events.
const eventBuffer = 128

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(middleware.NewLogger(os.Stderr, cfg.LogFormat))

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Key holder and coprocessor
	key := fhe.DeriveSecretKey([]byte(cfg.KeySeed))
	cop := fhe.NewCoprocessor(fhe.NewSQLStore(dbConn), key)
	l := ledger.New(dbConn)

	// Questions
	questions := survey.DefaultQuestions()
	if cfg.QuestionsFile != "" {
		questions, err = survey.LoadQuestions(cfg.QuestionsFile)
		if err != nil {
			slog.Error("failed to load questions", "file", cfg.QuestionsFile, "error", err)
			os.Exit(1)
		}
	}
	registry, err := survey.NewRegistry(questions, cfg.MaxOptions)
	if err != nil {
		slog.Error("invalid question list", "error", err)
		os.Exit(1)
	}

	var instance common.Address
	if cfg.InstanceAddress != "" {
		instance, err = auth.ParseAddress(cfg.InstanceAddress)
		if err != nil {
			slog.Error("invalid instance address", "address", cfg.InstanceAddress, "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine, err := survey.New(ctx, survey.Config{
		Registry:    registry,
		Coprocessor: cop,
		Ledger:      l,
		Protocol:    cfg.ProtocolID,
		Instance:    instance,
	})
	if err != nil {
		slog.Error("survey initialization failed", "error", err)
		os.Exit(1)
	}
	dep := engine.Deployment()
	slog.Info("Survey ready",
		"instance", dep.Instance.Hex(),
		"protocol", dep.Protocol,
		"questions", registry.Count(),
	)

	// Decryption service
	table := fhe.NewDlogTable(cfg.MaxTally)
	slog.Info("Decryption table ready",
		"max_tally", humanize.Comma(int64(table.Max())),
		"entries", humanize.Comma(int64(table.Size())),
	)
	svc := decryption.NewService(fhe.NewSQLStore(dbConn), key, table, cfg.DecryptWorkers, decryptQueueSize)
	svcDone := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(svcDone)
	}()

	// Log committed events
	events, unsubscribe := l.Subscribe(eventBuffer)
	defer unsubscribe()
	go func() {
		for ev := range events {
			slog.Info("event committed", "seq", ev.Seq, "kind", ev.Kind, "question_id", ev.QuestionID)
		}
	}()

	// Create router
	mux := router.NewRouter(engine, svc, l)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	cancel()
	<-svcDone
}
