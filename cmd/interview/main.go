// Copyright (c) 2023-2025 RapidaAI
// Interview Capture CLI - runs a full mock interview against the analysis
// backend, replaying pre-recorded WAV answers through the capture pipeline.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rapidaai/interview/config"
	internal_encoder "github.com/rapidaai/interview/internal/audio/encoder"
	internal_audio_source "github.com/rapidaai/interview/internal/audio/source"
	internal_interview "github.com/rapidaai/interview/internal/interview"
	internal_recorder "github.com/rapidaai/interview/internal/recorder"
	analysis_client "github.com/rapidaai/interview/pkg/clients/analysis"
	token_store "github.com/rapidaai/interview/pkg/clients/token"
	"github.com/rapidaai/interview/pkg/commons"
)

func main() {
	position := flag.String("position", "", "Job position to interview for")
	jobURL := flag.String("job-url", "", "Job posting URL")
	questions := flag.Int("questions", 0, "Question count (1-5, 0 = config default)")
	email := flag.String("email", "", "Backend account email (optional)")
	password := flag.String("password", "", "Backend account password (optional)")
	flag.Parse()

	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("config init failed: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nshutting down...")
		cancel()
	}()

	if *questions == 0 {
		*questions = cfg.DefaultQuestionCount
	}
	if *position == "" {
		logger.Fatalf("-position is required")
	}

	tokens := token_store.NewStore(logger, cfg.TokenPath)
	client := analysis_client.NewAnalysisServiceClient(cfg, logger, tokens)

	if *email != "" {
		if err := client.Login(ctx, *email, *password); err != nil {
			logger.Fatalf("login failed: %v", err)
		}
	}

	store, err := internal_interview.NewStore(logger, cfg.StorePath)
	if err != nil {
		logger.Warnf("session store unavailable, continuing without local history: %v", err)
		store = nil
	}

	machine := internal_interview.NewMachine(logger, client, nil, store)
	if err := run(ctx, logger, machine, *position, *jobURL, *questions); err != nil {
		logger.Fatalf("interview failed: %v", err)
	}
}

func run(ctx context.Context, logger commons.Logger, machine *internal_interview.Machine, position, jobURL string, questions int) error {
	if err := machine.Begin(ctx, position, jobURL, questions); err != nil {
		return err
	}

	for _, message := range machine.ChatLog() {
		fmt.Printf("[%s] %s\n", message.Kind, message.Text)
	}

	stdin := bufio.NewScanner(os.Stdin)
	for !machine.IsComplete() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		question, ok := machine.CurrentQuestion()
		if !ok {
			break
		}
		fmt.Printf("\nQ%d: %s\n", machine.QuestionIndex()+1, question)
		fmt.Print("path to recorded answer WAV: ")
		if !stdin.Scan() {
			return fmt.Errorf("input closed before the interview finished")
		}
		path := strings.TrimSpace(stdin.Text())
		if path == "" {
			continue
		}

		artifact, err := captureAnswer(ctx, logger, path)
		if err != nil {
			fmt.Printf("capture failed: %v\n", err)
			continue
		}

		report, err := machine.SubmitAnswer(ctx, "", artifact.Payload)
		if err != nil {
			fmt.Printf("upload failed, answer not counted: %v\n", err)
			continue
		}
		fmt.Printf("answered (%.1fs audio, score %.1f): %s\n",
			artifact.Duration(), report.OverallScore, report.Text)
	}

	feedback, err := machine.Finish(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Final feedback (overall %.1f) ===\n", feedback.OverallScore)
	fmt.Printf("delivery: %s\n", feedback.DeliveryFeedback)
	fmt.Printf("tone:     %s\n", feedback.ToneFeedback)
	fmt.Printf("rhythm:   %s\n", feedback.RhythmFeedback)
	for _, s := range feedback.Strengths {
		fmt.Printf("  + %s\n", s)
	}
	for _, s := range feedback.ImprovementAreas {
		fmt.Printf("  - %s\n", s)
	}
	return nil
}

// captureAnswer replays one WAV file through the full capture pipeline and
// returns the re-encoded 16 kHz artifact, exactly as a live microphone
// session would produce it.
func captureAnswer(ctx context.Context, logger commons.Logger, path string) (*internal_encoder.Artifact, error) {
	done := make(chan *internal_encoder.Artifact, 1)

	source := internal_audio_source.NewFileSource(logger, path)
	controller := internal_recorder.NewController(logger, source, nil,
		internal_recorder.Options{},
		internal_recorder.Callbacks{
			OnRecordingComplete: func(artifact *internal_encoder.Artifact) {
				done <- artifact
			},
		})

	if err := controller.Start(ctx); err != nil {
		return nil, err
	}

	// The replay is not paced; stop once the buffer stops growing.
	settled := 0
	previous := -1
	for settled < 2 {
		select {
		case <-ctx.Done():
			controller.Stop()
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
		count := controller.Encoder().SampleCount()
		if count == previous && count > 0 {
			settled++
		} else {
			settled = 0
		}
		previous = count
	}
	controller.Stop()

	select {
	case artifact := <-done:
		return artifact, nil
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("no artifact produced for %s", path)
	}
}
