package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kestreldb/kestrel/internal/catalog"
	"github.com/kestreldb/kestrel/internal/config"
	"github.com/kestreldb/kestrel/internal/query/expr"
	"github.com/kestreldb/kestrel/internal/query/graph"
	"github.com/kestreldb/kestrel/internal/query/planner"
	"github.com/kestreldb/kestrel/internal/txn"
)

// querySpec is the YAML shape the explain command consumes: a catalog, a
// pattern, and optional planner configuration.
type querySpec struct {
	Config  *config.Config `yaml:"config"`
	Catalog catalogSpec    `yaml:"catalog"`
	Query   patternSpec    `yaml:"query"`
}

type catalogSpec struct {
	Nodes []nodeTableSpec `yaml:"nodes"`
	Rels  []relTableSpec  `yaml:"rels"`
}

type nodeTableSpec struct {
	Name string `yaml:"name"`
	Rows int64  `yaml:"rows"`
}

type relTableSpec struct {
	Name   string  `yaml:"name"`
	Src    string  `yaml:"src"`
	Dst    string  `yaml:"dst"`
	Rows   int64   `yaml:"rows"`
	Degree float64 `yaml:"degree"`
}

type patternSpec struct {
	Nodes      []queryNodeSpec `yaml:"nodes"`
	Rels       []queryRelSpec  `yaml:"rels"`
	Predicates []string        `yaml:"predicates"`
}

type queryNodeSpec struct {
	Var   string `yaml:"var"`
	Table string `yaml:"table"`
}

type queryRelSpec struct {
	Var   string `yaml:"var"`
	Table string `yaml:"table"`
	Src   string `yaml:"src"`
	Dst   string `yaml:"dst"`
}

func newExplainCmd() *cobra.Command {
	var specPath string
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Plan a query description and print the chosen operator tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(specPath)
		},
	}
	cmd.Flags().StringVarP(&specPath, "file", "f", "", "query description file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runExplain(specPath string) error {
	data, err := os.ReadFile(specPath)
	if err != nil {
		return err
	}
	var spec querySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("parsing %s: %w", specPath, err)
	}
	cfg := spec.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cat, err := buildCatalog(&spec.Catalog)
	if err != nil {
		return err
	}
	qg, err := buildQueryGraph(cat, &spec.Query)
	if err != nil {
		return err
	}
	predicates, err := parsePredicates(spec.Query.Predicates)
	if err != nil {
		return err
	}

	p := planner.NewPlanner(cat, txn.New(), cfg, nil, planner.NewPropertyExprCollection())
	plan, err := p.PlanQueryGraphCollection(
		&graph.QueryGraphCollection{QueryGraphs: []*graph.QueryGraph{qg}},
		&planner.QueryGraphPlanningInfo{Predicates: predicates})
	if err != nil {
		return err
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Printf("plan (cost=%.0f, cardinality=%.0f)\n", plan.Cost(), plan.Cardinality())
	printOperator(plan.LastOperator(), 0)
	return nil
}

func buildCatalog(spec *catalogSpec) (*catalog.MemoryCatalog, error) {
	cat := catalog.NewMemoryCatalog()
	tables := make(map[string]catalog.TableID)
	for _, n := range spec.Nodes {
		tbl, err := cat.CreateNodeTable(n.Name, nil)
		if err != nil {
			return nil, err
		}
		cat.SetTableStats(tbl.ID, &catalog.TableStats{RowCount: n.Rows})
		tables[n.Name] = tbl.ID
	}
	for _, r := range spec.Rels {
		src, ok := tables[r.Src]
		if !ok {
			return nil, fmt.Errorf("rel table %s: unknown src table %q", r.Name, r.Src)
		}
		dst, ok := tables[r.Dst]
		if !ok {
			return nil, fmt.Errorf("rel table %s: unknown dst table %q", r.Name, r.Dst)
		}
		tbl, err := cat.CreateRelTable(r.Name, src, dst, nil)
		if err != nil {
			return nil, err
		}
		cat.SetTableStats(tbl.ID, &catalog.TableStats{RowCount: r.Rows, AvgDegree: r.Degree})
	}
	return cat, nil
}

func buildQueryGraph(cat *catalog.MemoryCatalog, spec *patternSpec) (*graph.QueryGraph, error) {
	qg := graph.NewQueryGraph()
	for _, n := range spec.Nodes {
		tbl, err := cat.GetNodeTable(n.Table)
		if err != nil {
			return nil, err
		}
		if err := qg.AddQueryNode(&graph.QueryNode{
			Name:     n.Var,
			TableIDs: []catalog.TableID{tbl.ID},
		}); err != nil {
			return nil, err
		}
	}
	for _, r := range spec.Rels {
		tbl, err := cat.GetRelTable(r.Table)
		if err != nil {
			return nil, err
		}
		if err := qg.AddQueryRel(&graph.QueryRel{
			Name:        r.Var,
			SrcNodeName: r.Src,
			DstNodeName: r.Dst,
			Direction:   graph.DirectionFwd,
			Type:        graph.RelNonRecursive,
			TableIDs:    []catalog.TableID{tbl.ID},
		}); err != nil {
			return nil, err
		}
	}
	return qg, nil
}

// parsePredicates understands simple equality conjuncts: "a.age = 30" and
// "a.age = b.age". Anything richer arrives through the binder, not this
// tool.
func parsePredicates(specs []string) ([]expr.Expression, error) {
	var result []expr.Expression
	for _, s := range specs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("predicate %q: expected <operand> = <operand>", s)
		}
		left, err := parseOperand(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("predicate %q: %w", s, err)
		}
		right, err := parseOperand(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("predicate %q: %w", s, err)
		}
		result = append(result, &expr.FunctionCall{
			Name: "EQUALS",
			Args: []expr.Expression{left, right},
			Type: catalog.TypeBool,
		})
	}
	return result, nil
}

func parseOperand(s string) (expr.Expression, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &expr.Literal{Value: v, Type: catalog.TypeInt64}, nil
	}
	if variable, property, ok := strings.Cut(s, "."); ok && variable != "" && property != "" {
		return &expr.PropertyAccess{Variable: variable, Property: property, Type: catalog.TypeInt64}, nil
	}
	return nil, fmt.Errorf("cannot parse operand %q", s)
}

var operatorColors = map[planner.OperatorType]*color.Color{
	planner.OpTypeScanNodeTable:   color.New(color.FgGreen),
	planner.OpTypeExpressionsScan: color.New(color.FgGreen),
	planner.OpTypeExtend:          color.New(color.FgYellow),
	planner.OpTypeRecursiveExtend: color.New(color.FgYellow),
	planner.OpTypeHashJoin:        color.New(color.FgMagenta),
	planner.OpTypeIntersect:       color.New(color.FgMagenta),
	planner.OpTypeCrossProduct:    color.New(color.FgMagenta),
	planner.OpTypeFilter:          color.New(color.FgBlue),
}

func printOperator(op planner.LogicalOperator, depth int) {
	indent := strings.Repeat("  ", depth)
	c, ok := operatorColors[op.Type()]
	if !ok {
		c = color.New(color.Reset)
	}
	fmt.Print(indent)
	c.Println(op.String())
	for _, child := range op.Children() {
		printOperator(child, depth+1)
	}
}
