package postgres

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveHydratedQueryIsFillOnly(t *testing.T) {
	assignRe := regexp.MustCompile(`(?m)^\s*([a-z0-9_]+) = (.+)$`)
	assignments := map[string]string{}
	for _, m := range assignRe.FindAllStringSubmatch(saveHydratedQuery, -1) {
		assignments[m[1]] = m[2]
	}
	require.Len(t, assignments, 35, "every profile column plus last_synced_at and updated_at")

	overwritten := map[string]bool{"last_synced_at": true, "updated_at": true}
	for col, expr := range assignments {
		if overwritten[col] {
			continue
		}
		t.Run("Should keep the stored "+col, func(t *testing.T) {
			switch {
			case strings.HasPrefix(expr, "COALESCE("):
				assert.Contains(t, expr, "("+col, "COALESCE must prefer the stored value")
			case strings.HasPrefix(expr, "CASE WHEN"):
				assert.Contains(t, saveHydratedQuery, "ELSE "+col+" END", "CASE must fall back to the stored value")
			default:
				t.Fatalf("%s is overwritten unconditionally: %s", col, expr)
			}
		})
	}
}

func TestSaveHydratedQueryFillsRangesAsAUnit(t *testing.T) {
	salaryGuard := "desired_salary_min IS NULL AND desired_salary_max IS NULL AND NULLIF(salary_currency, '') IS NULL"
	assert.Equal(t, 3, strings.Count(saveHydratedQuery, salaryGuard))

	sizeGuard := "preferred_yacht_size_min IS NULL AND preferred_yacht_size_max IS NULL"
	assert.Equal(t, 2, strings.Count(saveHydratedQuery, sizeGuard))
}
