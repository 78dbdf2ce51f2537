package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"siapcheck/internal/document"
	"siapcheck/internal/engine"
	"siapcheck/internal/logging"
	"siapcheck/internal/route"
	"siapcheck/internal/store"
	"siapcheck/internal/verdict"
	"siapcheck/internal/wiring"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported in the MCP implementation info.
var Version = "dev"

// Server wraps the MCP SDK server and exposes the evaluator as tools.
type Server struct {
	MCPServer *sdkmcp.Server
	Evaluator *wiring.Evaluator
	// Store receives every evaluated result when set.
	Store store.Store
	// OnResult, when set, is called with every evaluated result.
	OnResult func(verdict.Result)

	logger *slog.Logger
}

// NewServer creates an MCP server around ev. st may be nil.
func NewServer(ev *wiring.Evaluator, st store.Store) *Server {
	s := &Server{Evaluator: ev, Store: st, logger: logging.New("mcp")}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "siapcheck", Version: Version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_scenarios",
		Description: "List the loaded compliance scenarios with their question and red flag counts.",
	}, s.handleListScenarios)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "classify_document",
		Description: "Route a document to the compliance scenario it most likely concerns. An empty scenario_id means no scenario matched.",
	}, s.handleClassifyDocument)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "evaluate_document",
		Description: "Evaluate a document against a scenario decision tree and return the verdict, risk score, trace and recommended action.",
	}, s.handleEvaluateDocument)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "latest_result",
		Description: "Return the most recent stored result for a document id.",
	}, s.handleLatestResult)
}

// --- Tool input/output types ---

type listScenariosInput struct{}

type scenarioSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Questions   int      `json:"questions"`
	RedFlags    []string `json:"red_flags"`
}

type listScenariosOutput struct {
	Scenarios []scenarioSummary `json:"scenarios"`
}

type classifyDocumentInput struct {
	Text string `json:"text,omitempty" jsonschema:"document text"`
	Path string `json:"path,omitempty" jsonschema:"path to a .txt or .md document, used when text is empty"`
}

type evaluateDocumentInput struct {
	DocumentID string `json:"document_id,omitempty" jsonschema:"identifier for the result (defaults to the file stem or 'inline')"`
	Text       string `json:"text,omitempty" jsonschema:"document text"`
	Path       string `json:"path,omitempty" jsonschema:"path to a .txt or .md document, used when text is empty"`
	Scenario   string `json:"scenario,omitempty" jsonschema:"scenario id; skips routing when set"`
}

type latestResultInput struct {
	DocumentID string `json:"document_id" jsonschema:"document id used when the result was evaluated"`
}

type latestResultOutput struct {
	Found  bool            `json:"found"`
	RunID  string          `json:"run_id,omitempty"`
	Result *verdict.Result `json:"result,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleListScenarios(_ context.Context, _ *sdkmcp.CallToolRequest, _ listScenariosInput) (*sdkmcp.CallToolResult, listScenariosOutput, error) {
	out := listScenariosOutput{Scenarios: []scenarioSummary{}}
	for _, g := range s.Evaluator.Registry.Graphs() {
		flags := []string{}
		for _, id := range g.NodeIDs() {
			if g.IsRedFlag(id) {
				flags = append(flags, id)
			}
		}
		out.Scenarios = append(out.Scenarios, scenarioSummary{
			ID:          g.ID(),
			Name:        g.Name(),
			Description: g.Description(),
			Questions:   g.Len(),
			RedFlags:    flags,
		})
	}
	return nil, out, nil
}

func (s *Server) handleClassifyDocument(ctx context.Context, _ *sdkmcp.CallToolRequest, input classifyDocumentInput) (*sdkmcp.CallToolResult, route.Route, error) {
	doc, err := loadInput("", input.Text, input.Path)
	if err != nil {
		return nil, route.Route{}, err
	}
	rt, err := s.Evaluator.Classifier.Classify(ctx, doc.Text)
	if err != nil {
		return nil, route.Route{}, fmt.Errorf("classify_document: %w", err)
	}
	if rt.Matched == nil {
		rt.Matched = []string{}
	}
	return nil, rt, nil
}

func (s *Server) handleEvaluateDocument(ctx context.Context, _ *sdkmcp.CallToolRequest, input evaluateDocumentInput) (*sdkmcp.CallToolResult, verdict.Result, error) {
	doc, err := loadInput(input.DocumentID, input.Text, input.Path)
	if err != nil {
		return nil, verdict.Result{}, err
	}

	var res verdict.Result
	if input.Scenario != "" {
		res, err = s.Evaluator.EvaluateScenario(ctx, doc, input.Scenario)
	} else {
		res, err = s.Evaluator.Evaluate(ctx, doc)
	}
	if err != nil {
		return nil, verdict.Result{}, fmt.Errorf("evaluate_document: %w", err)
	}

	if s.OnResult != nil {
		s.OnResult(res)
	}
	if s.Store != nil {
		if err := s.persist(res); err != nil {
			s.logger.Warn("result not persisted", "document", res.DocumentID, "error", err)
		}
	}
	return nil, res, nil
}

func (s *Server) handleLatestResult(_ context.Context, _ *sdkmcp.CallToolRequest, input latestResultInput) (*sdkmcp.CallToolResult, latestResultOutput, error) {
	if input.DocumentID == "" {
		return nil, latestResultOutput{}, fmt.Errorf("document_id is required")
	}
	if s.Store == nil {
		return nil, latestResultOutput{}, fmt.Errorf("no result store configured")
	}
	rec, err := s.Store.LatestResult(input.DocumentID)
	if err != nil {
		return nil, latestResultOutput{}, fmt.Errorf("latest_result: %w", err)
	}
	if rec == nil {
		return nil, latestResultOutput{Found: false}, nil
	}
	return nil, latestResultOutput{Found: true, RunID: rec.RunID, Result: &rec.Result}, nil
}

func (s *Server) persist(res verdict.Result) error {
	run, err := s.Store.CreateRun("mcp:"+res.DocumentID, 1)
	if err != nil {
		return err
	}
	_, err = s.Store.SaveResult(run.ID, res)
	return err
}

func loadInput(id, text, path string) (engine.Document, error) {
	switch {
	case text != "":
		if id == "" {
			id = "inline"
		}
		return engine.Document{ID: id, Text: text}, nil
	case path != "":
		doc, err := document.LoadFile(path)
		if err != nil {
			return engine.Document{}, err
		}
		if id != "" {
			doc.ID = id
		}
		return doc, nil
	}
	return engine.Document{}, fmt.Errorf("one of text or path is required")
}
