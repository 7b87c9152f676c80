package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/logging"
	"github.com/strucgrid/bimalign/internal/metrics"
	"github.com/strucgrid/bimalign/internal/modelio"
	"github.com/strucgrid/bimalign/internal/pipeline"
	"github.com/strucgrid/bimalign/internal/report"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an HTTP API that runs the alignment pipeline on demand",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := logging.New("info")
	if err != nil {
		return err
	}
	defer logger.Sync()

	params, err := config.Load(configPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Post("/v1/align", func(w http.ResponseWriter, req *http.Request) {
		m.RunsTotal.Inc()

		elements, err := modelio.Ingest(req.Body)
		if err != nil {
			m.RunFailuresTotal.WithLabelValues("invalid_input").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		out, err := pipeline.Run(req.Context(), logger, elements, params, nil, nil)
		if err != nil {
			m.RunFailuresTotal.WithLabelValues("pipeline_error").Inc()
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		displacements := make([]float64, len(out.Vertices))
		for i, v := range out.Vertices {
			displacements[i] = v.Displacement
		}
		m.ObserveDisplacements(displacements)
		m.VertexCount.Observe(float64(len(out.Vertices)))
		for _, e := range out.Edits {
			m.EditsByRule.WithLabelValues(fmt.Sprintf("%d", e.SourceRule)).Inc()
		}

		summary := report.Build(out.Vertices, out.Edits, out.Warnings)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	})

	logger.Sugar().Infof("listening on %s", serveAddr)
	return http.ListenAndServe(serveAddr, r)
}
