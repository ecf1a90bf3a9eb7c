package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/tripweaver/tripweaver/internal/engine"
)

func main() {
	// Load .env if present, real environment wins.
	_ = godotenv.Load()

	ctx := context.Background()

	fs := flag.NewFlagSet("tripweaver", flag.ExitOnError)
	sessionFlag := fs.String("session", "", "Resume a suspended session by id (default: start a new one)")
	watchFlag := fs.Bool("watch", false, "Watch the guides directory and reindex on change")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	env, err := prepareRuntimeEnv(ctx, *watchFlag)
	if err != nil {
		log.Fatalf("failed to prepare runtime environment: %v", err)
	}
	defer env.Close()

	if err := runInteractive(ctx, env, *sessionFlag, fs.Args()); err != nil {
		log.Fatalf("session failed: %v", err)
	}
}

// runInteractive drives one planning session over stdin: run until the
// planner suspends, show its prompt, feed the reply back in, repeat until
// the itinerary is confirmed.
func runInteractive(ctx context.Context, env *runtimeEnv, sessionID string, args []string) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var outcome engine.Outcome
	var err error

	if sessionID != "" {
		// Resuming: the first line of input answers the pending prompt.
		fmt.Printf("resuming session %s\nyou> ", sessionID)
		reply, ok := readLine(scanner)
		if !ok {
			return nil
		}
		outcome, err = env.Scheduler.Resume(ctx, sessionID, reply)
	} else {
		sessionID = uuid.NewString()
		request := strings.TrimSpace(strings.Join(args, " "))
		if request == "" {
			fmt.Print("Where to? Describe the trip you want.\nyou> ")
			var ok bool
			request, ok = readLine(scanner)
			if !ok {
				return nil
			}
		}
		fmt.Printf("session %s\n", sessionID)
		outcome, err = env.Scheduler.Start(ctx, sessionID, request)
	}

	for {
		if err != nil {
			return err
		}
		if outcome.Kind == engine.KindTerminate {
			printFinal(outcome.State)
			return nil
		}

		fmt.Printf("\n%s\nyou> ", outcome.Prompt)
		reply, ok := readLine(scanner)
		if !ok {
			fmt.Printf("\nsession %s is suspended, resume with -session %s\n", sessionID, sessionID)
			return nil
		}
		outcome, err = env.Scheduler.Resume(ctx, sessionID, reply)
	}
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			return line, true
		}
	}
	return "", false
}

func printFinal(st *engine.ConversationState) {
	if st == nil {
		return
	}
	for i := len(st.Messages) - 1; i >= 0; i-- {
		if st.Messages[i].Role == engine.RoleAssistant {
			fmt.Printf("\n%s\n", st.Messages[i].Content)
			break
		}
	}
	if st.Itinerary != nil {
		fmt.Printf("\n%s\n", st.Itinerary.JSON())
	}
	fmt.Printf("\ntokens used: %d prompt, %d completion\n", st.Totals.Prompt, st.Totals.Completion)
}
