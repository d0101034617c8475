package weather

import (
	"slices"
	"sort"
	"sync"
)

// Model identifiers accepted by each source's `models` query parameter.
var (
	archiveModels = []string{
		"best_match",
		"ecmwf_ifs",
		"ecmwf_ifs_analysis_long_window",
		"era5_seamless",
		"era5",
		"era5_land",
		"era5_ensemble",
		"cerra",
	}

	forecastModels = []string{
		"best_match",
		"ecmwf_ifs",
		"ecmwf_ifs025",
		"ecmwf_aifs025_single",
		"cma_grapes_global",
		"bom_access_global",
		"icon_seamless",
		"icon_global",
		"icon_eu",
		"icon_d2",
		"metno_seamless",
		"metno_nordic",
		"dmi_harmonie_arome_europe",
		"dmi_seamless",
		"knmi_harmonie_arome_netherlands",
		"knmi_harmonie_arome_europe",
		"knmi_seamless",
		"gem_hrdps_west",
		"gem_hrdps_continental",
		"gem_regional",
		"gem_global",
		"gem_seamless",
		"ncep_hgefs025_ensemble_mean",
		"ncep_aigfs025",
		"gfs_graphcast025",
		"ncep_nam_conus",
		"ncep_nbm_conus",
		"gfs_hrrr",
		"gfs_global",
		"gfs_seamless",
		"jma_seamless",
		"jma_msm",
		"jma_gsm",
		"meteofrance_seamless",
		"meteofrance_arpege_world",
		"meteofrance_arpege_europe",
		"meteofrance_arome_france",
		"meteofrance_arome_france_hd",
		"ukmo_seamless",
		"ukmo_global_deterministic_10km",
		"ukmo_uk_deterministic_2km",
		"meteoswiss_icon_ch2",
		"meteoswiss_icon_ch1",
		"meteoswiss_icon_seamless",
		"italia_meteo_arpae_icon_2i",
		"kma_gdps",
		"kma_ldps",
		"kma_seamless",
	}

	ensembleModels = []string{
		"icon_seamless_eps",
		"icon_global_eps",
		"icon_eu_eps",
		"icon_d2_eps",
		"meteoswiss_icon_ch1_ensemble",
		"meteoswiss_icon_ch2_ensemble",
		"ncep_aigefs025",
		"ncep_gefs025",
		"ncep_gefs05",
		"ncep_gefs_seamless",
		"bom_access_global_ensemble",
		"gem_global_ensemble",
		"ecmwf_ifs025_ensemble",
		"ecmwf_aifs025_ensemble",
		"ukmo_global_ensemble_20km",
		"ukmo_uk_ensemble_2km",
	}
)

// Daily measures that can be summed over a period, per source.
var (
	archiveSummableMeasures  = []string{"rain_sum", "snowfall_sum", "precipitation_sum", "precipitation_hours"}
	forecastSummableMeasures = []string{"rain_sum", "showers_sum", "snowfall_sum", "precipitation_sum", "precipitation_hours"}
	ensembleSummableMeasures = []string{"rain_sum", "snowfall_sum", "precipitation_sum", "precipitation_hours"}
)

// Models returns a copy of the model identifiers the source accepts.
func (s Source) Models() []string {
	switch s {
	case HistoricalArchive:
		return slices.Clone(archiveModels)
	case ForecastStandard:
		return slices.Clone(forecastModels)
	case ForecastEnsemble:
		return slices.Clone(ensembleModels)
	default:
		return nil
	}
}

// SummableMeasures returns a copy of the daily measures requested from the source.
func (s Source) SummableMeasures() []string {
	switch s {
	case HistoricalArchive:
		return slices.Clone(archiveSummableMeasures)
	case ForecastStandard:
		return slices.Clone(forecastSummableMeasures)
	case ForecastEnsemble:
		return slices.Clone(ensembleSummableMeasures)
	default:
		return nil
	}
}

// ModelRegistry is an immutable set of model identifiers ordered by length
// descending, ties broken lexicographically. The order is what makes suffix
// matching pick the most specific model: "meteoswiss_icon_seamless" is tried
// before "icon_seamless".
type ModelRegistry struct {
	models []string
}

// NewModelRegistry merges the given lists into a deduplicated, ordered registry.
func NewModelRegistry(lists ...[]string) *ModelRegistry {
	seen := make(map[string]struct{})
	var models []string
	for _, list := range lists {
		for _, m := range list {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			models = append(models, m)
		}
	}

	sort.Slice(models, func(i, j int) bool {
		if len(models[i]) != len(models[j]) {
			return len(models[i]) > len(models[j])
		}
		return models[i] < models[j]
	})

	return &ModelRegistry{models: models}
}

var defaultRegistry = sync.OnceValue(func() *ModelRegistry {
	return NewModelRegistry(archiveModels, forecastModels, ensembleModels)
})

// DefaultModelRegistry returns the registry of every archive, forecast and ensemble model.
func DefaultModelRegistry() *ModelRegistry {
	return defaultRegistry()
}

// Models returns a copy of the ordered model list.
func (r *ModelRegistry) Models() []string {
	out := make([]string, len(r.models))
	copy(out, r.models)
	return out
}

// Len returns the number of distinct models.
func (r *ModelRegistry) Len() int {
	return len(r.models)
}

// Contains reports whether model is registered.
func (r *ModelRegistry) Contains(model string) bool {
	for _, m := range r.models {
		if m == model {
			return true
		}
	}
	return false
}
