package epsonconnect

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSettings_withDefaults(t *testing.T) {
	t.Run("nil settings", func(t *testing.T) {
		got := (*PrintSettings)(nil).withDefaults()

		assert.Regexp(t, regexp.MustCompile(`^job-[0-9a-f]{8}$`), got.JobName)
		assert.Equal(t, PrintModeDocument, got.PrintMode)
		assert.Nil(t, got.PrintSetting)
	})

	t.Run("print setting defaults", func(t *testing.T) {
		in := &PrintSettings{
			JobName:      "report",
			PrintMode:    PrintModePhoto,
			PrintSetting: &PrintSetting{MediaSize: "ms_letter", Borderless: true},
		}
		got := in.withDefaults()

		assert.Equal(t, "report", got.JobName)
		assert.Equal(t, PrintModePhoto, got.PrintMode)
		require.NotNil(t, got.PrintSetting)
		assert.Equal(t, "ms_letter", got.PrintSetting.MediaSize)
		assert.Equal(t, "mt_plainpaper", got.PrintSetting.MediaType)
		assert.True(t, got.PrintSetting.Borderless)
		assert.Equal(t, "normal", got.PrintSetting.PrintQuality)
		assert.Equal(t, "auto", got.PrintSetting.Source)
		assert.Equal(t, "color", got.PrintSetting.ColorMode)
		assert.Equal(t, "none", got.PrintSetting.TwoSided)
		assert.Equal(t, 1, got.PrintSetting.Copies)
		require.NotNil(t, got.PrintSetting.Collate)
		assert.True(t, *got.PrintSetting.Collate)

		// The caller's settings are not modified.
		assert.Empty(t, in.PrintSetting.MediaType)
		assert.Nil(t, in.PrintSetting.Collate)
	})

	t.Run("explicit collate false is kept", func(t *testing.T) {
		collate := false
		got := (&PrintSettings{PrintSetting: &PrintSetting{Collate: &collate}}).withDefaults()

		require.NotNil(t, got.PrintSetting.Collate)
		assert.False(t, *got.PrintSetting.Collate)
	})

	t.Run("generated names differ", func(t *testing.T) {
		a := (&PrintSettings{}).withDefaults()
		b := (&PrintSettings{}).withDefaults()
		assert.NotEqual(t, a.JobName, b.JobName)
	})
}
