package status

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillwatch/internal/application"
)

func TestRenderEmptyOverview(t *testing.T) {
	output, err := Render(nil, RenderOptions{SkillsDir: "/tmp/skills"})

	require.NoError(t, err)
	assert.Contains(t, output, "Skills")
	assert.Contains(t, output, "skills: 0  observing: 0  dir: /tmp/skills")
	assert.Contains(t, output, "No skills yet.")
}

func TestRenderSkillWithObserverAndArtifacts(t *testing.T) {
	output, err := Render([]application.SkillStatus{
		{
			Name:         "go-testing",
			Running:      true,
			Pid:          4242,
			IndexBytes:   2048,
			DetailsBytes: 8192,
			Resources:    2,
		},
	}, RenderOptions{MaxSkillBytes: 32768, MaxIndexBytes: 4096})

	require.NoError(t, err)
	assert.Contains(t, output, "skills: 1  observing: 1")
	assert.Contains(t, output, "go-testing (observing, pid 4242)")
	assert.Contains(t, output, "index:")
	assert.Contains(t, output, "details:")
	assert.Contains(t, output, "50% of 4.0 KB")
	assert.Contains(t, output, "25% of 32.0 KB")
	assert.Contains(t, output, "2 resources")
	assert.Contains(t, output, "[")
	assert.Contains(t, output, "]")
}

func TestRenderLegacyOnlySkill(t *testing.T) {
	output, err := Render([]application.SkillStatus{
		{Name: "old-notes", Legacy: true},
	}, RenderOptions{MaxSkillBytes: 32768, MaxIndexBytes: 4096})

	require.NoError(t, err)
	assert.Contains(t, output, "old-notes (idle)")
	assert.Contains(t, output, "legacy flat file, not yet distilled")
	assert.NotContains(t, output, "index:")
}

func TestRenderOmitsBarsForUnwrittenArtifacts(t *testing.T) {
	output, err := Render([]application.SkillStatus{
		{Name: "sparse", DetailsBytes: 1024},
	}, RenderOptions{MaxSkillBytes: 32768, MaxIndexBytes: 4096})

	require.NoError(t, err)
	assert.NotContains(t, output, "index:")
	assert.Contains(t, output, "details:")
}

func TestRenderProgressBarFillsUsedFraction(t *testing.T) {
	// Zero-value styles add no escape codes, so the bar text is exact.
	var plain styles

	assert.Equal(t, "["+strings.Repeat("=", 12)+strings.Repeat("-", 12)+"]", renderProgressBar(0.5, 24, plain))
	assert.Equal(t, "["+strings.Repeat("=", 24)+"]", renderProgressBar(1.7, 24, plain))
	assert.Equal(t, "["+strings.Repeat("-", 24)+"]", renderProgressBar(-0.3, 24, plain))
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.0 KB", humanBytes(1024))
	assert.Equal(t, "32.0 KB", humanBytes(32768))
	assert.Equal(t, "1.5 MB", humanBytes(1572864))
}
