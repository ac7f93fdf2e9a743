package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

// requestKind resolves the {kind} path segment ("expenses", "income", ...).
func requestKind(r *http.Request) (core.Kind, error) {
	return core.ParseKind(r.PathValue("kind"))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := requestKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := s.svc.List(r.Context(), user, kind, ParseListOptions(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, transactionListDTO{
		Kind:         kind,
		Count:        len(records),
		Total:        toMoney(report.Sum(records)),
		Transactions: toTransactions(records),
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := requestKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.svc.Get(r.Context(), user, kind, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTransaction(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := requestKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := parseTransactionRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.svc.Create(r.Context(), user, core.Transaction{Kind: kind}.Apply(patch))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/"+r.PathValue("kind")+"/"+created.ID)
	writeJSON(w, r, http.StatusCreated, toTransaction(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := requestKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := parseTransactionRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	if err := s.svc.Update(r.Context(), user, kind, id, patch); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.svc.Get(r.Context(), user, kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTransaction(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := requestKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.Delete(r.Context(), user, kind, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
