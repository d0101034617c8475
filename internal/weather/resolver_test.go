package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelRegistry(t *testing.T) {
	t.Run("DeduplicatedAndLengthDescending", func(t *testing.T) {
		reg := DefaultModelRegistry()
		models := reg.Models()

		seen := make(map[string]bool)
		for i, m := range models {
			require.False(t, seen[m], "duplicate model %s", m)
			seen[m] = true
			if i == 0 {
				continue
			}
			prev := models[i-1]
			require.True(t, len(prev) > len(m) || (len(prev) == len(m) && prev < m),
				"order violated at %d: %s before %s", i, prev, m)
		}

		// best_match and ecmwf_ifs appear in both archive and forecast lists.
		assert.Equal(t, len(archiveModels)+len(forecastModels)+len(ensembleModels)-2, reg.Len())
	})

	t.Run("TiesBrokenLexicographically", func(t *testing.T) {
		reg := NewModelRegistry([]string{"kma_ldps", "kma_gdps", "abc"}, []string{"kma_gdps"})
		assert.Equal(t, []string{"kma_gdps", "kma_ldps", "abc"}, reg.Models())
	})

	t.Run("Idempotent", func(t *testing.T) {
		a := NewModelRegistry(archiveModels, forecastModels, ensembleModels)
		b := NewModelRegistry(ensembleModels, forecastModels, archiveModels)
		assert.Equal(t, a.Models(), b.Models())
		assert.Equal(t, a.Models(), DefaultModelRegistry().Models())
	})

	t.Run("ModelsReturnsCopy", func(t *testing.T) {
		reg := NewModelRegistry([]string{"era5", "cerra"})
		models := reg.Models()
		models[0] = "mutated"
		assert.Equal(t, []string{"cerra", "era5"}, reg.Models())
	})

	t.Run("SourceListsReturnCopies", func(t *testing.T) {
		models := ForecastStandard.Models()
		models[0] = "mutated"
		measures := HistoricalArchive.SummableMeasures()
		measures[0] = "mutated"

		assert.NotEqual(t, "mutated", ForecastStandard.Models()[0])
		assert.NotEqual(t, "mutated", HistoricalArchive.SummableMeasures()[0])
		assert.False(t, NewModelRegistry(ForecastStandard.Models()).Contains("mutated"))
	})

	t.Run("Contains", func(t *testing.T) {
		reg := DefaultModelRegistry()
		assert.True(t, reg.Contains("icon_seamless"))
		assert.True(t, reg.Contains("ukmo_uk_ensemble_2km"))
		assert.False(t, reg.Contains("unknown_model"))
	})
}

func TestKeyResolver(t *testing.T) {
	resolver := NewKeyResolver(DefaultModelRegistry())

	t.Run("LongestSuffixWins", func(t *testing.T) {
		got, err := resolver.Resolve("rain_sum_meteoswiss_icon_seamless")
		require.NoError(t, err)
		assert.Equal(t, MeasureAndModel{Measure: "rain_sum", Model: "meteoswiss_icon_seamless"}, got)
	})

	t.Run("ShorterModelStillResolves", func(t *testing.T) {
		got, err := resolver.Resolve("rain_sum_icon_seamless")
		require.NoError(t, err)
		assert.Equal(t, MeasureAndModel{Measure: "rain_sum", Model: "icon_seamless"}, got)
	})

	t.Run("EnsembleVariantPreferredOverBase", func(t *testing.T) {
		got, err := resolver.Resolve("precipitation_sum_icon_seamless_eps")
		require.NoError(t, err)
		assert.Equal(t, "icon_seamless_eps", got.Model)
		assert.Equal(t, "precipitation_sum", got.Measure)
	})

	t.Run("MeasureWithUnderscores", func(t *testing.T) {
		got, err := resolver.Resolve("precipitation_hours_kma_ldps")
		require.NoError(t, err)
		assert.Equal(t, MeasureAndModel{Measure: "precipitation_hours", Model: "kma_ldps"}, got)
	})

	t.Run("OverlappingPrefixes", func(t *testing.T) {
		got, err := resolver.Resolve("rain_sum_kma_gdps")
		require.NoError(t, err)
		assert.Equal(t, MeasureAndModel{Measure: "rain_sum", Model: "kma_gdps"}, got)
	})

	t.Run("UnknownModel", func(t *testing.T) {
		_, err := resolver.Resolve("rain_sum_unknown_model")
		require.ErrorIs(t, err, ErrUnresolvableFieldKey)
		assert.Contains(t, err.Error(), "rain_sum_unknown_model")
	})

	t.Run("MissingSeparator", func(t *testing.T) {
		_, err := resolver.Resolve("rain_summeteoswiss_icon_seamless")
		require.ErrorIs(t, err, ErrMissingKeySeparator)
		assert.Contains(t, err.Error(), "rain_summeteoswiss_icon_seamless")
	})

	t.Run("MeasureNotValidated", func(t *testing.T) {
		got, err := resolver.Resolve("whatever_this_is_era5")
		require.NoError(t, err)
		assert.Equal(t, "whatever_this_is", got.Measure)

		got, err = resolver.Resolve("_era5")
		require.NoError(t, err)
		assert.Equal(t, "", got.Measure)
	})

	t.Run("AllMeasureModelCombinations", func(t *testing.T) {
		for _, src := range Sources {
			for _, measure := range src.SummableMeasures() {
				for _, model := range src.Models() {
					got, err := resolver.Resolve(measure + "_" + model)
					require.NoError(t, err, "%s_%s", measure, model)
					assert.Equal(t, MeasureAndModel{Measure: measure, Model: model}, got)
				}
			}
		}
	})

	t.Run("InjectedRegistry", func(t *testing.T) {
		r := NewKeyResolver(NewModelRegistry([]string{"foo"}))
		_, err := r.Resolve("rain_sum_era5")
		assert.ErrorIs(t, err, ErrUnresolvableFieldKey)

		got, err := r.Resolve("rain_sum_foo")
		require.NoError(t, err)
		assert.Equal(t, "foo", got.Model)
	})
}
