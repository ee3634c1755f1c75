package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the HTTP routing table. Metrics exposure is optional;
// pass nil to skip the /metrics endpoint.
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	r.HandleFunc("/accounts", s.createAccount).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{username}", s.getAccount).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{username}/statement", s.statement).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{username}/deposits", s.deposit).Methods(http.MethodPost)

	r.HandleFunc("/transfers", s.transfer).Methods(http.MethodPost)
	r.HandleFunc("/loans", s.applyLoan).Methods(http.MethodPost)
	r.HandleFunc("/settlements", s.settle).Methods(http.MethodPost)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}
