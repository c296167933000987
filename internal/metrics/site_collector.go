package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"langsite/internal/i18n"
)

var (
	supportedLanguagesDesc = prometheus.NewDesc("langsite_supported_languages", "Number of languages with a translation table", nil, nil)
	translationKeysDesc    = prometheus.NewDesc("langsite_translation_keys", "Number of translation keys per language", []string{"language"}, nil)
	storeEntriesDesc       = prometheus.NewDesc("langsite_store_entries", "Entries held by the in-process storage backend", nil, nil)
)

// Sizer is implemented by storage backends that can report their size.
type Sizer interface {
	Len() int
}

type siteCollector struct {
	catalog *i18n.Catalog
	store   Sizer
}

// NewSiteCollector exposes catalog and storage gauges. store may be nil.
func NewSiteCollector(catalog *i18n.Catalog, store Sizer) prometheus.Collector {
	return &siteCollector{catalog: catalog, store: store}
}

func (collector *siteCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- supportedLanguagesDesc
	ch <- translationKeysDesc
	ch <- storeEntriesDesc
}

func (collector *siteCollector) Collect(ch chan<- prometheus.Metric) {
	supported := collector.catalog.Supported()
	ch <- prometheus.MustNewConstMetric(supportedLanguagesDesc, prometheus.GaugeValue, float64(len(supported)))
	for _, lang := range supported {
		table := collector.catalog.Table(lang)
		ch <- prometheus.MustNewConstMetric(translationKeysDesc, prometheus.GaugeValue, float64(table.Len()), string(lang))
	}
	if collector.store != nil {
		ch <- prometheus.MustNewConstMetric(storeEntriesDesc, prometheus.GaugeValue, float64(collector.store.Len()))
	}
}
