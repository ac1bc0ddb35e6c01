// Command agentlink is an interactive terminal host for ACP coding agents.
// It spawns the agent described by a launch definition, streams its output
// to the terminal, and services permission and file-read requests.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/termweave/agentlink/acp"
	"github.com/termweave/agentlink/agent"
	"github.com/termweave/agentlink/config"
	"github.com/termweave/agentlink/tools"
)

var (
	agentMsg   = color.New(color.FgCyan)
	thoughtMsg = color.New(color.FgHiBlack, color.Italic)
	toolMsg    = color.New(color.FgMagenta)
	statusMsg  = color.New(color.FgGreen)
	errorMsg   = color.New(color.FgRed)
	promptMark = color.New(color.FgYellow, color.Bold)
)

type app struct {
	ag     *agent.Agent
	cfg    *config.Config
	logger *slog.Logger

	mu          sync.Mutex
	pendingPerm *agent.PermissionRequest
	turnBusy    bool
}

func main() {
	agentFlag := flag.String("agent", "", "Path to the agent launch definition (TOML)")
	cwdFlag := flag.String("cwd", "", "Working directory for the agent (defaults to the current directory)")
	yoloFlag := flag.Bool("yolo", false, "Auto-approve all permission requests")
	logLevelFlag := flag.String("log-level", "", "Log level: debug, info, warn, or error")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}
	if *yoloFlag {
		cfg.AutoApprove = true
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if *agentFlag == "" {
		fmt.Fprintln(os.Stderr, "Usage: agentlink -agent <definition.toml> [-cwd dir] [-yolo]")
		os.Exit(1)
	}
	def, err := config.LoadAgentDefinition(*agentFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading agent definition: %+v\n", err)
		os.Exit(1)
	}
	if !def.IsActive() {
		fmt.Fprintf(os.Stderr, "Agent '%s' is marked inactive.\n", def.Identity)
		os.Exit(1)
	}
	if !def.ConnectorInstalled() {
		fmt.Fprintf(os.Stderr, "Agent '%s' connector is not installed.", def.Identity)
		if def.InstallCommand != "" {
			fmt.Fprintf(os.Stderr, " Install it with: %s", def.InstallCommand)
		}
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}

	cwd := *cwdFlag
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving working directory: %+v\n", err)
			os.Exit(1)
		}
	}

	ag := agent.New(*def, cfg.ClientInfo(), logger)
	ag.SetAutoApprove(cfg.AutoApprove)

	a := &app{ag: ag, cfg: cfg, logger: logger}
	go a.consumeEvents(ag.Events())

	if err := ag.Connect(context.Background(), cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to agent: %+v\n", err)
		os.Exit(1)
	}

	name := def.Name
	if name == "" {
		name = def.Identity
	}
	fmt.Printf("Connected to %s. Type a prompt, /cancel to interrupt, /quit to exit.\n", name)
	a.repl()

	ag.Close()
}

// repl reads lines from the terminal. While a turn is in flight, input is
// interpreted as a permission answer or a command rather than a new prompt.
func (a *app) repl() {
	reader := bufio.NewReader(os.Stdin)
	for {
		promptMark.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return
		case line == "/cancel":
			if err := a.ag.Cancel(); err != nil {
				errorMsg.Printf("cancel failed: %v\n", err)
			}
		case a.answerPermission(line):
			// handled
		case a.busy():
			fmt.Println("Agent is busy. Use /cancel to interrupt the turn.")
		default:
			a.startTurn(line)
		}
	}
}

// startTurn submits the prompt on a background goroutine so the terminal
// stays responsive to /cancel and permission answers.
func (a *app) startTurn(text string) {
	a.mu.Lock()
	a.turnBusy = true
	a.mu.Unlock()

	go func() {
		stop, err := a.ag.SendPrompt(context.Background(), []acp.ContentBlock{acp.TextBlock(text)})

		a.mu.Lock()
		a.turnBusy = false
		a.mu.Unlock()

		fmt.Println()
		if err != nil {
			errorMsg.Printf("prompt failed: %v\n", err)
			return
		}
		statusMsg.Printf("[turn finished: %s]\n", stop)
	}()
}

func (a *app) busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.turnBusy
}

// answerPermission resolves the pending permission request when the line is
// a valid option number. Returns false when there is nothing pending or the
// line is not an answer.
func (a *app) answerPermission(line string) bool {
	a.mu.Lock()
	req := a.pendingPerm
	a.mu.Unlock()
	if req == nil {
		return false
	}

	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(req.Options) {
		errorMsg.Printf("Answer with a number between 1 and %d.\n", len(req.Options))
		return true
	}

	a.mu.Lock()
	a.pendingPerm = nil
	a.mu.Unlock()

	if err := a.ag.RespondPermission(req.ID, req.Options[n-1].OptionID, false); err != nil {
		errorMsg.Printf("failed to answer permission request: %v\n", err)
	}
	return true
}

// consumeEvents renders the agent's event stream and auto-services file
// reads, applying the configured hidden-path patterns. The channel can be
// retrieved from the agent only once, so the caller hands it in.
func (a *app) consumeEvents(events <-chan agent.Event) {
	for ev := range events {
		switch ev.Kind {
		case agent.EventStatusChanged:
			if ev.Status == agent.StatusError {
				errorMsg.Printf("[agent error: %s]\n", ev.Err)
			} else {
				statusMsg.Printf("[%s]\n", ev.Status)
			}
		case agent.EventSessionUpdate:
			a.renderUpdate(ev.Update)
		case agent.EventPermissionRequest:
			a.showPermission(ev.Permission)
		case agent.EventFileReadRequest:
			a.serveFileRead(ev.FileRead)
		}
	}
}

func (a *app) renderUpdate(u *acp.SessionUpdate) {
	switch u.Kind {
	case acp.UpdateAgentMessageChunk:
		agentMsg.Print(u.Text)
	case acp.UpdateAgentThoughtChunk:
		thoughtMsg.Print(u.Text)
	case acp.UpdateUserMessageChunk:
		// The user already typed this; skip the echo.
	case acp.UpdateToolCall:
		toolMsg.Printf("\n[tool: %s %s]\n", u.ToolCall.Title, u.ToolCall.Status)
	case acp.UpdateToolCallUpdate:
		if u.ToolCallUpdate.Status != nil {
			toolMsg.Printf("[tool %s: %s]\n", u.ToolCallUpdate.ID, *u.ToolCallUpdate.Status)
		}
	case acp.UpdatePlan:
		toolMsg.Println("\n[plan]")
		for _, entry := range u.Plan {
			toolMsg.Printf("  - %s (%s)\n", entry.Content, entry.Status)
		}
	case acp.UpdateCurrentMode:
		statusMsg.Printf("[mode: %s]\n", u.ModeID)
	default:
		a.logger.Debug("unrendered session update", "kind", u.Kind.String())
	}
}

func (a *app) showPermission(req *agent.PermissionRequest) {
	a.mu.Lock()
	a.pendingPerm = req
	a.mu.Unlock()

	fmt.Println()
	toolMsg.Println("The agent requests permission:")
	if len(req.ToolCall) > 0 {
		fmt.Printf("  %s\n", string(req.ToolCall))
	}
	for i, opt := range req.Options {
		fmt.Printf("  %d) %s\n", i+1, opt.Name)
	}
	fmt.Println("Answer with the option number.")
}

func (a *app) serveFileRead(req *agent.FileReadRequest) {
	restricted, err := tools.Restricted(req.Path, a.cfg.Hidden)
	if err == nil && restricted {
		err = fmt.Errorf("access denied: path '%s' is hidden", req.Path)
	}

	var content string
	if err == nil {
		content, err = tools.ReadTextFile(req.Path, req.Line, req.Limit)
	}
	if respErr := a.ag.RespondFileRead(req.ID, content, err); respErr != nil {
		a.logger.Warn("failed to answer file read", "path", req.Path, "err", respErr)
	}
}
