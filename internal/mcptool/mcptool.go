// Package mcptool exposes the decodability engine as MCP tools so authoring
// copilots can query it while drafting curriculum material.
//
// Three tools are served: check_decodability scores a full text against a
// taught set, decompose_word returns a word's correspondence breakdown, and
// list_inventories enumerates the selectable GPC inventories. The server
// speaks the stdio transport; run it with `readlark mcp`.
package mcptool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/readlark/readlark/internal/curriculum"
	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/pkg/phonics"
)

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithCurriculumStore enables named inventory variants beyond the built-in
// default.
func WithCurriculumStore(store curriculum.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithThreshold sets the decodability pass threshold used by
// check_decodability.
func WithThreshold(threshold float64) Option {
	return func(s *Server) { s.threshold = threshold }
}

// Server wraps an MCP server exposing the engine's authoring tools.
type Server struct {
	inventory *phonics.Inventory
	store     curriculum.Store
	threshold float64

	mcp *mcp.Server
}

// New creates a Server over the default inventory and registers the tools.
func New(inventory *phonics.Inventory, opts ...Option) *Server {
	s := &Server{
		inventory: inventory,
		threshold: decodability.DefaultThreshold,
	}
	for _, o := range opts {
		o(s)
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: "readlark", Version: "1.0.0"}, nil)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "check_decodability",
		Description: "Score a story text against a learner's taught grapheme-phoneme correspondences. Returns the token-weighted decodability report, including the undecodable words to avoid.",
	}, s.checkDecodability)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "decompose_word",
		Description: "Break a single word into its grapheme-phoneme correspondences using greedy longest-match decomposition.",
	}, s.decomposeWord)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_inventories",
		Description: "List the GPC inventories available for validation: the built-in UK systematic-synthetic-phonics inventory plus any stored variants.",
	}, s.listInventories)

	return s
}

// Run serves the MCP protocol over stdio until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcptool: run: %w", err)
	}
	return nil
}

// resolveInventory mirrors the HTTP API's lookup: empty or the default
// inventory's name selects the built-in inventory, anything else the store.
func (s *Server) resolveInventory(ctx context.Context, name string) (*phonics.Inventory, error) {
	if name == "" || name == s.inventory.Name() {
		return s.inventory, nil
	}
	if s.store == nil {
		return nil, fmt.Errorf("mcptool: unknown inventory %q", name)
	}
	def, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("mcptool: unknown inventory %q", name)
	}
	return def.Build()
}

// ── check_decodability ───────────────────────────────────────────────────────

type checkDecodabilityInput struct {
	Text            string   `json:"text" jsonschema:"the story text to score"`
	TaughtGraphemes []string `json:"taught_graphemes" jsonschema:"graphemes the learner can already decode"`
	TargetGraphemes []string `json:"target_graphemes,omitempty" jsonschema:"graphemes the text should practise"`
	Inventory       string   `json:"inventory,omitempty" jsonschema:"inventory id; empty selects the built-in inventory"`
}

type checkDecodabilityOutput struct {
	Report *decodability.Report `json:"report"`
}

func (s *Server) checkDecodability(ctx context.Context, req *mcp.CallToolRequest, in checkDecodabilityInput) (*mcp.CallToolResult, checkDecodabilityOutput, error) {
	if len(in.TaughtGraphemes) == 0 {
		return nil, checkDecodabilityOutput{}, fmt.Errorf("mcptool: taught_graphemes must not be empty")
	}
	inv, err := s.resolveInventory(ctx, in.Inventory)
	if err != nil {
		return nil, checkDecodabilityOutput{}, err
	}

	validator := decodability.New(phonics.NewDecomposer(inv), decodability.WithThreshold(s.threshold))
	report := validator.ValidateStory(in.Text,
		phonics.NewGPCSet(in.TaughtGraphemes...),
		phonics.NewGPCSet(in.TargetGraphemes...),
	)
	return nil, checkDecodabilityOutput{Report: report}, nil
}

// ── decompose_word ───────────────────────────────────────────────────────────

type decomposeWordInput struct {
	Word      string `json:"word" jsonschema:"the word to decompose"`
	Inventory string `json:"inventory,omitempty" jsonschema:"inventory id; empty selects the built-in inventory"`
}

type decomposeWordOutput struct {
	Word       string        `json:"word"`
	GPCs       []phonics.GPC `json:"gpcs"`
	TrickyWord bool          `json:"tricky_word"`
}

func (s *Server) decomposeWord(ctx context.Context, req *mcp.CallToolRequest, in decomposeWordInput) (*mcp.CallToolResult, decomposeWordOutput, error) {
	word := phonics.NormalizeWord(in.Word)
	if word == "" {
		return nil, decomposeWordOutput{}, fmt.Errorf("mcptool: word must contain at least one letter")
	}
	inv, err := s.resolveInventory(ctx, in.Inventory)
	if err != nil {
		return nil, decomposeWordOutput{}, err
	}

	return nil, decomposeWordOutput{
		Word:       word,
		GPCs:       phonics.NewDecomposer(inv).Decompose(word),
		TrickyWord: inv.Tricky().Contains(word),
	}, nil
}

// ── list_inventories ─────────────────────────────────────────────────────────

type listInventoriesInput struct{}

type inventoryEntry struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	GPCs        int    `json:"gpcs"`
	TrickyWords int    `json:"tricky_words"`
	Source      string `json:"source"`
}

type listInventoriesOutput struct {
	Inventories []inventoryEntry `json:"inventories"`
}

func (s *Server) listInventories(ctx context.Context, req *mcp.CallToolRequest, _ listInventoriesInput) (*mcp.CallToolResult, listInventoriesOutput, error) {
	out := listInventoriesOutput{
		Inventories: []inventoryEntry{{
			Name:        s.inventory.Name(),
			GPCs:        s.inventory.Len(),
			TrickyWords: s.inventory.Tricky().Len(),
			Source:      "builtin",
		}},
	}

	if s.store != nil {
		defs, err := s.store.List(ctx, "")
		if err != nil {
			return nil, listInventoriesOutput{}, err
		}
		for _, d := range defs {
			out.Inventories = append(out.Inventories, inventoryEntry{
				ID:          d.ID,
				Name:        d.Name,
				GPCs:        len(d.GPCs),
				TrickyWords: len(d.TrickyWords),
				Source:      "store",
			})
		}
	}
	return nil, out, nil
}
