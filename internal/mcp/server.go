// Package mcp exposes the governor over the Model Context Protocol.
// Agent runtimes connect on stdio and request verdicts as tool calls;
// denied evaluations come back as error results carrying the verdict.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/praetor-hq/praetor/internal/alert"
	"github.com/praetor-hq/praetor/internal/audit"
	"github.com/praetor-hq/praetor/internal/constitution"
	"github.com/praetor-hq/praetor/internal/governor"
	"github.com/praetor-hq/praetor/internal/model"
	"github.com/praetor-hq/praetor/internal/review"
	"github.com/praetor-hq/praetor/internal/trust"
)

// Config holds MCP server configuration.
type Config struct {
	ConstitutionPath string
	Mode             string
	AuditLogPath     string
	TrustDBPath      string
	ReviewDir        string
}

// Server wraps the MCP SDK server around a governor.
type Server struct {
	mcpServer *mcpsdk.Server
	gov       *governor.Governor
	store     *trust.Store
}

// New assembles a governor from cfg and registers the governance tools.
func New(cfg Config) (*Server, error) {
	cons, _, err := constitution.LoadWithHash(cfg.ConstitutionPath)
	if err != nil {
		return nil, fmt.Errorf("load constitution: %w", err)
	}

	mode := model.ModeNormative
	if cfg.Mode != "" {
		mode, err = model.ParseMode(cfg.Mode)
		if err != nil {
			return nil, err
		}
	}

	opts := governor.Options{Mode: mode}

	if cfg.AuditLogPath != "" {
		sink, err := audit.OpenFile(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		opts.AuditSinks = append(opts.AuditSinks, sink)
	}

	var store *trust.Store
	if cfg.TrustDBPath != "" {
		store, err = trust.OpenStore(cfg.TrustDBPath)
		if err != nil {
			return nil, fmt.Errorf("open trust store: %w", err)
		}
		opts.TrustStore = store
	}

	dir := cfg.ReviewDir
	if dir == "" {
		dir = review.DefaultDir()
	}
	reviews, err := review.NewStore(dir)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("open review store: %w", err)
	}
	opts.ReviewStore = reviews

	// Webhook destinations ride along in the constitution file.
	if configs, err := alert.LoadConfigs(cfg.ConstitutionPath); err == nil && len(configs) > 0 {
		opts.Notifier = alert.NewNotifier(configs)
	}

	gov, err := governor.New(cons, opts)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	// The MCP surface is the long-running deployment; report monitoring.
	if err := gov.Start(); err != nil {
		gov.Stop()
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	s := &Server{gov: gov, store: store}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "praetor-governor",
			Version: "1.0.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Governor exposes the underlying engine for reloads and metrics.
func (s *Server) Governor() *governor.Governor {
	return s.gov
}

// Close stops the governor and releases the trust store.
func (s *Server) Close() error {
	err := s.gov.Stop()
	if s.store != nil {
		if cerr := s.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// registerTools adds the governance tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "evaluate_input",
		Description: "Evaluate content arriving at an agent against the constitution. Denied content returns an error result with the verdict.",
	}, s.handleEvaluateInput)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "evaluate_output",
		Description: "Evaluate content an agent produced before it crosses the boundary. Denied content returns an error result with the verdict.",
	}, s.handleEvaluateOutput)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "agent_status",
		Description: "Report trust score, suspension state and latest suspicion for an agent.",
	}, s.handleAgentStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "lift_suspension",
		Description: "Clear an agent's suspension on operator authority. Requires a reason.",
	}, s.handleLiftSuspension)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "constitution_info",
		Description: "Describe the active constitution: version, integrity hash, principles and red flags.",
	}, s.handleConstitutionInfo)
}
