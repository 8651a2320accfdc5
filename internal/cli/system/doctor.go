package system

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitflow/internal/cli"
	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/keyring"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/utils"
	"github.com/julianstephens/habitflow/internal/validation"
)

type DoctorCmd struct{}

type checkResult int

const (
	checkOK checkResult = iota
	checkWarn
	checkFail
	checkSkipped
)

type doctor struct {
	ctx      *cli.Context
	hasError bool
}

func (d *doctor) report(name string, result checkResult, detail string) {
	switch result {
	case checkOK:
		d.ctx.Printf("✓ %s: OK\n", name)
	case checkWarn:
		d.ctx.Printf("⚠ %s: WARNING\n", name)
	case checkFail:
		d.ctx.Printf("❌ %s: FAIL\n", name)
		d.hasError = true
	case checkSkipped:
		d.ctx.Printf("⊘ %s: SKIPPED (%s)\n", name, detail)
		return
	}
	if detail != "" {
		d.ctx.Printf("   %s\n", detail)
	}
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()
	d := &doctor{ctx: ctx}

	// Check 1: configuration
	if err := ctx.Config.Validate(); err != nil {
		d.report("Configuration", checkFail, err.Error())
	} else {
		d.report("Configuration", checkOK, "")
	}

	// Check 2: keyring (warning only, env vars still work)
	if keyring.IsAvailable() {
		d.report("OS keyring", checkOK, "")
	} else {
		d.report("OS keyring", checkWarn, "keyring unavailable, set the API key via environment")
	}

	// Check 3: backend configured
	configured := false
	if u, ok := ctx.Backend.(storage.Unconfigured); ok {
		d.report("Backend configured", checkFail,
			fmt.Sprintf("missing %s (set %s or run 'habitflow init')",
				strings.Join(u.Missing, ", "), strings.Join(ctx.Config.Backend.Missing(), ", ")))
	} else {
		d.report("Backend configured", checkOK, "")
		configured = true
	}

	// Check 4: backend reachable
	reachable := false
	if configured {
		if err := ping(ctx, ctx.Backend); err != nil {
			d.report("Backend reachable", checkFail, err.Error())
		} else {
			d.report("Backend reachable", checkOK, "")
			reachable = true
		}
	} else {
		d.report("Backend reachable", checkSkipped, "backend not configured")
	}

	// Check 5: schema version
	if reachable {
		checkSchema(d, ctx)
	} else {
		d.report("Database schema", checkSkipped, "backend not reachable")
	}

	// Check 6: session
	signedIn := false
	if reachable {
		switch err := ctx.Load(); {
		case err == nil:
			signedIn = true
			d.report("Session", checkOK, "signed in as "+ctx.Sync.Identity().Email)
		case errors.Is(err, apperrors.ErrNotAuthenticated):
			d.report("Session", checkWarn, "not signed in")
		default:
			d.report("Session", checkFail, err.Error())
		}
	} else {
		d.report("Session", checkSkipped, "backend not reachable")
	}

	// Check 7: data validation
	if signedIn {
		s := ctx.State()
		result := validation.ValidateCollections(s.Habits, s.Tasks, s.Entries)
		if result.HasConflicts() {
			d.report("Data validation", checkFail, strings.TrimSpace(result.FormatReport()))
		} else {
			d.report("Data validation", checkOK, "")
		}
	} else {
		d.report("Data validation", checkSkipped, "not signed in")
	}

	// Check 8: clock/timezone sanity
	if err := checkClockTimezone(ctx.Config.Timezone); err != nil {
		d.report("Clock/timezone", checkFail, err.Error())
	} else {
		d.report("Clock/timezone", checkOK, "")
	}

	ctx.Println()
	if d.hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func ping(ctx *cli.Context, b storage.Backend) error {
	conf, ok := b.(storage.Configured)
	if !ok {
		return apperrors.New(apperrors.KindConfiguration, "ping", "backend not configured")
	}
	if err := conf.Provider.Ping(ctx.Ctx); err != nil {
		return apperrors.Wrap(apperrors.KindRemote, "ping", err)
	}
	return nil
}

func checkSchema(d *doctor, ctx *cli.Context) {
	conf, ok := ctx.Backend.(storage.Configured)
	if !ok {
		return
	}
	checker, ok := conf.Provider.(storage.SchemaChecker)
	if !ok {
		d.report("Database schema", checkSkipped, "backend has no schema")
		return
	}
	if err := checker.CheckSchema(ctx.Ctx); err != nil {
		d.report("Database schema", checkFail, err.Error())
		return
	}
	d.report("Database schema", checkOK, "")
}

func checkClockTimezone(timezone string) error {
	loc, err := utils.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	now := time.Now().In(loc)
	if now.Year() < 2000 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}
