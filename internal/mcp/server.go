package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jit-rca/internal/catalog"
	"jit-rca/internal/dataset"
	"jit-rca/internal/jit"
	"jit-rca/internal/records"
	"jit-rca/internal/rootcause"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Settings are the defaults applied when a tool call leaves a parameter out.
type Settings struct {
	ToleranceMinutes int
	TargetSLA        float64
	HorizonDays      int
	Charts           bool
	CompareLimit     int
}

// Server exposes the analysis views of the stored datasets as MCP tools.
type Server struct {
	store    *dataset.Store
	catalog  *catalog.Active
	settings Settings
	now      func() time.Time
}

// NewServer creates a new MCP server over a dataset store and the active catalog.
func NewServer(store *dataset.Store, active *catalog.Active, settings Settings) *Server {
	return &Server{
		store:    store,
		catalog:  active,
		settings: settings,
		now:      time.Now,
	}
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP(version string) *sdk.Server {
	srv := sdk.NewServer(&sdk.Implementation{Name: "jitrca", Version: version}, nil)
	s.registerTools(srv)
	return srv
}

// Serve runs the server over stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Serve(ctx context.Context, version string) error {
	log.Info().Int("datasets", len(s.store.List())).Msg("MCP server listening on stdio")
	return s.MCP(version).Run(ctx, &sdk.StdioTransport{})
}

// addTool registers a handler and logs every call with its outcome.
func addTool[In, Out any](srv *sdk.Server, name, description string, h func(context.Context, In) (Out, error)) {
	tool := &sdk.Tool{Name: name, Description: description}
	sdk.AddTool(srv, tool, func(ctx context.Context, _ *sdk.CallToolRequest, in In) (*sdk.CallToolResult, Out, error) {
		start := time.Now()
		out, err := h(ctx, in)

		ev := log.Info()
		if err != nil {
			ev = log.Warn().Err(err)
		}
		ev.Str("tool", name).Dur("elapsed", time.Since(start)).Msg("Tool call")
		return nil, out, err
	})
}

// Scope selects the dataset and the records of a tool call.
type Scope struct {
	Dataset          string `json:"dataset,omitempty" jsonschema:"dataset id or name, the most recent import when empty"`
	DateFrom         string `json:"date_from,omitempty" jsonschema:"first date to include, YYYY-MM-DD"`
	DateTo           string `json:"date_to,omitempty" jsonschema:"last date to include, YYYY-MM-DD"`
	ActivityCode     string `json:"activity_code,omitempty" jsonschema:"only records of this activity code"`
	RouteID          string `json:"route_id,omitempty" jsonschema:"only records of this route"`
	CustomerID       string `json:"customer_id,omitempty" jsonschema:"only records of this customer"`
	ToleranceMinutes *int   `json:"tolerance_minutes,omitempty" jsonschema:"minutes added on both sides of every window"`
}

func (sc Scope) filter() records.Filter {
	return records.Filter{
		DateFrom:     sc.DateFrom,
		DateTo:       sc.DateTo,
		ActivityCode: sc.ActivityCode,
		RouteID:      sc.RouteID,
		CustomerID:   sc.CustomerID,
	}
}

// selection is a resolved scope: the filtered snapshot and the options to analyze it with.
type selection struct {
	datasetID string
	records   []records.OrderRecord
	opts      jit.Options
}

func (s *Server) resolve(sc Scope) (selection, error) {
	tol := s.settings.ToleranceMinutes
	if sc.ToleranceMinutes != nil {
		tol = *sc.ToleranceMinutes
	}
	if tol < 0 {
		return selection{}, fmt.Errorf("tolerance_minutes must not be negative, got %d", tol)
	}

	id, err := s.store.Resolve(sc.Dataset)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			return selection{}, fmt.Errorf("%w; import one with `jitrca import` first", err)
		}
		return selection{}, err
	}
	recs, err := s.store.Snapshot(id)
	if err != nil {
		return selection{}, err
	}

	sel := selection{
		datasetID: id,
		records:   sc.filter().Apply(recs),
		opts:      jit.Options{ToleranceMinutes: tol, Catalog: s.catalog.Get()},
	}
	log.Debug().
		Str("dataset", id).
		Int("records", len(recs)).
		Int("selected", len(sel.records)).
		Int("tolerance", tol).
		Msg("Resolved tool scope")
	return sel, nil
}

func (s *Server) planner(target *float64, horizon *int) rootcause.Params {
	p := rootcause.Params{
		TargetSLA:   s.settings.TargetSLA,
		HorizonDays: s.settings.HorizonDays,
		Now:         s.now(),
	}
	if target != nil {
		p.TargetSLA = *target
	}
	if horizon != nil {
		p.HorizonDays = *horizon
	}
	return p
}
