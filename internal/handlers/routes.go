package handlers

import (
	"net/http"

	"wordslayer/internal/logger"
)

// Routes builds the API handler with logging and panic recovery
func Routes(mw *Middleware, study *StudyHandler, batches *BatchHandler, proverbs *ProverbHandler, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Study routes
	mux.HandleFunc("GET /api/me/bank", mw.RequireAuth(study.CurrentBank))
	mux.HandleFunc("POST /api/banks/{bankID}/switch", mw.RequireAuth(study.SwitchBank))
	mux.HandleFunc("GET /api/banks/{bankID}/next", mw.RequireAuth(study.NextTask))
	mux.HandleFunc("POST /api/banks/{bankID}/answers", mw.RequireAuth(mw.RateLimit(study.SubmitAnswer)))
	mux.HandleFunc("GET /api/banks/{bankID}/stats", mw.RequireAuth(study.Stats))
	mux.HandleFunc("GET /api/banks/{bankID}/words", mw.RequireAuth(study.ListWords))
	mux.HandleFunc("POST /api/banks/{bankID}/tags", mw.RequireAuth(study.SetTags))
	mux.HandleFunc("GET /api/banks/{bankID}/records", mw.RequireAuth(study.ListRecords))
	mux.HandleFunc("GET /api/banks/{bankID}/hard-words", mw.RequireAuth(study.HardWords))
	mux.HandleFunc("GET /api/banks/{bankID}/profile", mw.RequireAuth(study.Profile))
	mux.HandleFunc("GET /api/banks/{bankID}/awards", mw.RequireAuth(study.Awards))
	mux.HandleFunc("POST /api/phrases/judge", mw.RequireAuth(study.JudgePhrase))

	// Batch routes
	mux.HandleFunc("GET /api/banks/{bankID}/batches", mw.RequireAuth(batches.ListBatches))
	mux.HandleFunc("POST /api/banks/{bankID}/batches", mw.RequireAuth(batches.CreateBatch))
	mux.HandleFunc("GET /api/banks/{bankID}/batches/{batchID}", mw.RequireAuth(batches.GetBatch))
	mux.HandleFunc("PUT /api/banks/{bankID}/batches/{batchID}/words", mw.RequireAuth(batches.SetWords))
	mux.HandleFunc("POST /api/banks/{bankID}/batches/{batchID}/reset", mw.RequireAuth(batches.Reset))
	mux.HandleFunc("GET /api/banks/{bankID}/batches/{batchID}/export", mw.RequireAuth(batches.Export))
	mux.HandleFunc("GET /api/banks/{bankID}/hard-words/since", mw.RequireAuth(batches.HardWordsSince))

	// Proverb routes
	mux.HandleFunc("GET /api/proverbs/next", mw.RequireAuth(proverbs.Next))
	mux.HandleFunc("GET /api/proverbs", mw.RequireAuth(proverbs.List))
	mux.HandleFunc("POST /api/proverbs", mw.RequireAuth(proverbs.Add))

	return Logging(log, Recover(log, mux))
}
