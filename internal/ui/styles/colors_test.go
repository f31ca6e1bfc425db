// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whitespc/whitespc/internal/settings"
)

func TestAccent_CoversEveryPreferenceColor(t *testing.T) {
	for _, name := range settings.AccentColors {
		_, ok := accents[name]
		require.True(t, ok, "accent %q has no color", name)
	}
	require.Len(t, accents, len(settings.AccentColors))
}

func TestAccent_Lookup(t *testing.T) {
	require.Equal(t, Rose, Accent("rose"))
	require.Equal(t, Cyan, Accent(" CYAN "))
	require.Equal(t, Violet, Accent("chartreuse"))
	require.Equal(t, Violet, Accent(""))
}

func TestStatusIndicatorsUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
		StatusIndicators.Locked,
	} {
		require.NotEmpty(t, s)
		require.False(t, seen[s], "duplicate indicator %q", s)
		seen[s] = true
	}
}

func TestRenderFunctions(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.render("journal unlocked")
			require.Contains(t, out, tc.indicator)
			require.Contains(t, out, "journal unlocked")
		})
	}
}

func TestRenderStatus(t *testing.T) {
	require.Contains(t, RenderStatus(true, "ok"), StatusIndicators.Success)
	require.Contains(t, RenderStatus(false, "bad"), StatusIndicators.Error)
}

func TestRenderFunctionsLongString(t *testing.T) {
	long := strings.Repeat("x", 2000)
	require.Contains(t, RenderWarning(long), long)
}
