package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	mbcfg "markbook/internal/config"
	"markbook/internal/gate"
	"markbook/internal/gradebook"
	"markbook/internal/logger"
	"markbook/internal/report"
	"markbook/internal/schema"
)

var (
	inspectStudent string
	inspectJSON    bool
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <workbook>",
		Short: "Decode and summarize a workbook without serving",
		Long: `inspect loads a workbook file the same way the service does and prints
its load metadata plus the instructor overview. With --student it prints
that student's summary and detail rows instead. No access codes are
checked; this is an operator tool.`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}
	cmd.Flags().StringVar(&inspectStudent, "student", "", "Print one student's summary instead of the overview")
	cmd.Flags().BoolVar(&inspectJSON, "json", false, "Machine-readable output")
	return cmd
}

type inspectPayload struct {
	Meta     *gradebook.Meta         `json:"meta"`
	Login    *gradebook.LoginResult  `json:"login,omitempty"`
	Overview []report.CourseOverview `json:"overview,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	// Config is optional here: with no config file the built-in vocabulary
	// still covers the common header spellings.
	var registry *schema.Registry
	if cfg, err := mbcfg.Load(resolveConfigPath()); err == nil && cfg.Vocabulary.Path != "" {
		r, err := schema.NewRegistry(cfg.Vocabulary.Path)
		if err != nil {
			logger.Warnf("vocabulary registry unavailable: %v", err)
		} else {
			registry = r
		}
	}

	svc := gradebook.New(gradebook.Options{
		Registry: registry,
		Gate:     gate.Gate{Mode: gate.ModeOpen},
	})
	if _, err := svc.LoadFile(args[0]); err != nil {
		return err
	}
	meta, err := svc.Meta()
	if err != nil {
		return err
	}

	payload := inspectPayload{Meta: meta}
	if strings.TrimSpace(inspectStudent) != "" {
		res, err := svc.Login(gate.Identity{StudentID: inspectStudent})
		if err != nil {
			return err
		}
		payload.Login = res
	} else {
		overview, err := svc.Overview()
		if err != nil {
			return err
		}
		payload.Overview = overview
	}

	if inspectJSON {
		raw, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}
	printInspect(payload)
	return nil
}

func printInspect(p inspectPayload) {
	m := p.Meta
	fmt.Printf("Workbook: %s\n", m.Source)
	fmt.Printf("  rows loaded:  %d\n", m.RowsLoaded)
	fmt.Printf("  grade sheets: %s\n", formatList(m.GradeSheets))
	fmt.Printf("  credentials:  %s (%d rows)\n", m.CredentialsSheet, m.CredentialRows)
	fmt.Printf("  content hash: %.12s\n", m.ContentHash)
	fmt.Printf("  vocabulary:   v%d\n", m.VocabVersion)
	fmt.Println()

	if p.Login != nil {
		printStudent(strings.TrimSpace(inspectStudent), p.Login)
		return
	}

	fmt.Println("Course overview:")
	if len(p.Overview) == 0 {
		fmt.Println("  (no grade rows)")
		return
	}
	for _, c := range p.Overview {
		fmt.Printf("  %s: students=%d assessments=%d mean=%s median=%s min=%s max=%s\n",
			c.Course, c.Students, c.Assessments,
			formatPercent(c.Mean), formatPercent(c.Median), formatPercent(c.Min), formatPercent(c.Max))
	}
}

func printStudent(id string, res *gradebook.LoginResult) {
	fmt.Printf("Student %s:\n", id)
	if res.Outcome == gradebook.OutcomeNoRows {
		fmt.Printf("  %s\n", res.Message)
		return
	}
	for _, s := range res.Summary {
		fmt.Printf("  %s: overall=%s (%d assessments)\n", s.Course, formatPercent(s.Overall), s.Assessments)
	}
	for _, d := range res.Details {
		score := "-"
		if d.Score != nil {
			score = trimFloat(*d.Score)
		}
		fmt.Printf("    - %s / %s: %s/%s (%s) [sheet: %s]\n",
			report.CourseLabel(d.Course), d.Assessment, score, trimFloat(d.OutOf), formatPercent(d.Percent), d.Sheet)
	}
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func formatPercent(m report.Metric) string {
	if m.IsNaN() {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(m))
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
