package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/gemral/gem/internal/daemon"
	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/sqlite"
)

var jsonOutput bool

// deviceUserKey is the device_info key holding the user saved by 'gem login'.
const deviceUserKey = "user"

// storedUser reads the saved user from the device store. Swapped in tests.
var storedUser = func() string {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return ""
	}
	dir := cfg.Storage.Dir
	if dir == "" {
		dir = daemon.GemHome()
	}
	db, err := sqlite.Open(dir)
	if err != nil {
		return ""
	}
	defer db.Close()
	v, _ := db.GetDeviceInfo(deviceUserKey)
	return v
}

// currentUser parses the --user flag, falling back to the saved login.
func currentUser() (uuid.UUID, error) {
	raw := userFlag
	if raw == "" {
		raw = storedUser()
	}
	if raw == "" {
		return uuid.Nil, errors.New("no user: pass --user, set GEM_USER or run 'gem login'")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// checkOutcome turns a failed outcome into an error and prints degradation.
func checkOutcome(o domain.Outcome) error {
	if !o.Success {
		return fmt.Errorf("%s (%s)", o.Error, o.ErrorKind)
	}
	if o.Degraded && !jsonOutput {
		fmt.Println("(backend capability unavailable, showing defaults)")
	}
	return nil
}

// printUnlocked lists newly unlocked achievements.
func printUnlocked(defs []domain.AchievementDef) {
	if len(defs) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("🏆 New achievements:")
	for _, d := range defs {
		fmt.Printf("  %s %s (+%d) — %s\n", d.Icon, d.Title, d.Points, d.Description)
	}
}

func bar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
