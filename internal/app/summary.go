package app

import (
	"fmt"
	"strings"

	"markbook/internal/config"
	"markbook/internal/schema"
)

// StartupSummary is printed once at boot so operators can eyeball the
// effective configuration.
type StartupSummary struct {
	Env            string
	HTTPAddr       string
	AuthMode       string
	RequireSecret  bool
	WorkbookSource string
	Watch          bool
	VocabularyPath string
	ExtraSpellings int
}

func buildSummary(cfg *config.Config, registry *schema.Registry) *StartupSummary {
	s := &StartupSummary{
		Env:           cfg.App.Env,
		HTTPAddr:      cfg.App.HTTPAddr,
		AuthMode:      cfg.Auth.Mode,
		RequireSecret: cfg.Auth.RequireSecret,
		Watch:         cfg.Workbook.Watch,
	}
	switch {
	case cfg.Workbook.Path != "":
		s.WorkbookSource = cfg.Workbook.Path
	case cfg.Workbook.URL != "":
		s.WorkbookSource = cfg.Workbook.URL
	default:
		s.WorkbookSource = "(none, waiting for upload)"
	}
	if registry != nil {
		s.VocabularyPath = cfg.Vocabulary.Path
		for _, spellings := range registry.Snapshot().Extras {
			s.ExtraSpellings += len(spellings)
		}
	}
	return s
}

func (s *StartupSummary) Print() {
	const title = "STARTUP SUMMARY"
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%*s\n", 40+len(title)/2, title)
	fmt.Println(strings.Repeat("=", 80))

	fmt.Println("[SERVICE]")
	fmt.Printf("  env:       %s\n", s.Env)
	fmt.Printf("  http addr: %s\n", s.HTTPAddr)
	fmt.Println()

	fmt.Println("[AUTH]")
	fmt.Printf("  mode:           %s\n", s.AuthMode)
	fmt.Printf("  require secret: %v\n", s.RequireSecret)
	fmt.Println()

	fmt.Println("[WORKBOOK]")
	fmt.Printf("  source: %s\n", s.WorkbookSource)
	fmt.Printf("  watch:  %v\n", s.Watch)
	fmt.Println()

	fmt.Println("[VOCABULARY]")
	if s.VocabularyPath == "" {
		fmt.Println("  (built-in synonyms only)")
	} else {
		fmt.Printf("  file:            %s\n", s.VocabularyPath)
		fmt.Printf("  extra spellings: %d\n", s.ExtraSpellings)
	}
	fmt.Println(strings.Repeat("=", 80))
}
