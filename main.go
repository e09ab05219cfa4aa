package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
)

func main() {
	cfg := LoadConfig()

	if cfg.Schedule != "" {
		runScheduled(cfg)
		return
	}
	if err := runOnce(cfg); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

// runScheduled repeats the pipeline on a standard 5-field cron schedule
// (minute hour day-of-month month day-of-week), e.g. "0 2 * * *" for
// nightly 2am runs.
func runScheduled(cfg Config) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(cfg.Schedule)
	if err != nil {
		log.Fatalf("Invalid schedule '%s': %v", cfg.Schedule, err)
	}

	log.Printf("Scheduled mode (cron: %s)", cfg.Schedule)
	for {
		now := time.Now()
		next := sched.Next(now)
		log.Printf("Next run at %s (in %s)", next.Format("Mon Jan 2 15:04"), next.Sub(now).Round(time.Minute))
		time.Sleep(next.Sub(now))

		if err := runOnce(cfg); err != nil {
			log.Printf("Scheduled run error: %v", err)
		}
	}
}

func runOnce(cfg Config) error {
	state := &RunState{}
	llm := newLLMClient(cfg, state)
	notifier := newNotifier(cfg)

	if cfg.KeywordsFile != "" {
		if err := LoadKeywordOverrides(cfg.KeywordsFile); err != nil {
			return fmt.Errorf("keyword overrides: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	questions, err := ParseQuestionnaireFile(ctx, cfg.QuestionnaireFile, llm, cfg.ParseTokens)
	if err != nil {
		return fmt.Errorf("questionnaire: %w", err)
	}
	log.Printf("questionnaire parsed questions=%d", len(questions))

	subjects, err := LoadSubjects(cfg.SubjectFile, cfg.OutputDir, cfg.MinAge, cfg.MaxAge, stdinConfirm)
	if err != nil {
		return fmt.Errorf("subjects: %w", err)
	}
	if len(subjects) == 0 {
		log.Printf("no subjects to simulate")
		return nil
	}

	var journal *sql.DB
	if cfg.JournalPath != "" {
		journal, err = InitJournal(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		defer journal.Close()
		log.Printf("journal open path=%s", cfg.JournalPath)
	}

	// SIGINT/SIGTERM cancel the context; workers drain and the partial
	// results still reach the sink below.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)
	go func() {
		<-interrupt
		log.Printf("interrupt received, draining in-flight calls")
		cancel()
	}()

	records, failures := RunSimulation(ctx, cfg, questions, subjects, llm, state, journal)

	// Last-resort save for panic paths; the normal path below runs first.
	saved := false
	defer func() {
		if !saved {
			if _, err := SaveResults(cfg.OutputDir, cfg.OutputFormat, records, failures, true); err != nil {
				log.Printf("emergency save error: %v", err)
			}
		}
	}()

	interrupted := state.Fatal() || ctx.Err() != nil
	path, err := SaveResults(cfg.OutputDir, cfg.OutputFormat, records, failures, interrupted)
	saved = true
	if err != nil {
		return fmt.Errorf("saving results: %w", err)
	}

	if state.Fatal() {
		reportPath, rerr := WriteFatalReport(cfg.OutputDir, state.Message(), records)
		if rerr != nil {
			log.Printf("fatal report error: %v", rerr)
		} else {
			log.Printf("fatal report written path=%s", reportPath)
		}
		notifier.Post("Simulation aborted on a fatal service error: %s", state.Message())
		return fmt.Errorf("fatal service error: %s", state.Message())
	}
	if ctx.Err() != nil {
		log.Printf("run interrupted, partial results saved path=%s", path)
		notifier.Post("Simulation interrupted; partial results saved to %s", path)
		return nil
	}

	log.Printf("run complete records=%d failures=%d path=%s", len(records), len(failures), path)
	notifier.Post("Simulation complete: %d records, %d failed calls. Results: %s", len(records), len(failures), path)
	return nil
}

func stdinConfirm(message string) bool {
	fmt.Printf("%s [y/N]: ", message)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}
