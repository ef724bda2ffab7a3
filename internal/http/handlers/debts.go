package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"tollboard/internal/models"
	"tollboard/internal/observatory"
	"tollboard/internal/session"
	"tollboard/internal/web"
)

// DebtsHandlers loads and settles inter-operator debts.
type DebtsHandlers struct {
	client   *observatory.Client
	sessions *session.Store
	renderer *web.Renderer
	logger   *zap.Logger
	adminID  string
}

// NewDebtsHandlers returns handler struct.
func NewDebtsHandlers(client *observatory.Client, sessions *session.Store, renderer *web.Renderer, logger *zap.Logger, adminID string) *DebtsHandlers {
	return &DebtsHandlers{client: client, sessions: sessions, renderer: renderer, logger: logger, adminID: adminID}
}

type debtsData struct {
	web.PageData
	DateFrom string
	DateTo   string
	Operator string
	Rows     []models.DebtRow
	Total    string
	Loaded   bool
}

// Show handles GET /debts. The loaded list replaces any previous one
// wholesale; the total is the client-side sum of the row costs.
func (h *DebtsHandlers) Show(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	q := r.URL.Query()

	data := debtsData{
		PageData: page("Debts", r, sess, h.adminID),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
	}
	if sess.IsAdmin(h.adminID) {
		data.Operator = q.Get("operator")
	} else {
		data.Operator = sess.OperatorID
	}

	if !q.Has("dateFrom") && !q.Has("dateTo") {
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}

	if msg, ok := h.validate(sess, data.DateFrom, data.DateTo, q.Get("operator")); !ok {
		data.Error = msg
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}

	from, err := models.NormalizeDate(data.DateFrom)
	if err != nil {
		data.Error = `Please select a "Date From".`
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}
	to, err := models.NormalizeDate(data.DateTo)
	if err != nil {
		data.Error = `Please select a "Date To".`
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}

	entries, err := h.client.OwedBy(r.Context(), sess.Token, data.Operator, from, to)
	if errors.Is(err, observatory.ErrNoData) {
		data.Notice = "No data found for the selected period."
		data.Rows = nil
		data.Total = models.Euro(0)
		data.Loaded = true
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}
	if err != nil {
		h.logger.Warn("debts load failed", zap.String("operator", data.Operator), zap.Error(err))
		data.Error = displayError(err)
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}

	data.Rows = models.DebtRows(entries)
	data.Total = models.Euro(models.DebtTotal(data.Rows))
	data.Loaded = true
	h.renderer.Render(w, http.StatusOK, "debts", data)
}

// Settle handles POST /debts/settle. The previously loaded rows travel in
// hidden fields; on success exactly the matching row is dropped and the
// total recomputed locally, with no re-fetch from the server.
func (h *DebtsHandlers) Settle(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	data := debtsData{
		PageData: page("Debts", r, sess, h.adminID),
		DateFrom: r.PostFormValue("dateFrom"),
		DateTo:   r.PostFormValue("dateTo"),
		Operator: r.PostFormValue("operator"),
		Loaded:   true,
	}
	if !sess.IsAdmin(h.adminID) {
		data.Operator = sess.OperatorID
	}

	rows := make([]models.DebtRow, 0, len(r.PostForm["row"]))
	for _, raw := range r.PostForm["row"] {
		row, err := models.DecodeDebtRow(raw)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		rows = append(rows, row)
	}
	data.Rows = rows
	data.Total = models.Euro(models.DebtTotal(rows))

	settleID, err := strconv.Atoi(r.PostFormValue("settle"))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	remaining, target, found := models.RemoveDebtRow(rows, settleID)
	if !found {
		data.Error = "An error occurred while settling debt. Please try again."
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}

	from, err := models.NormalizeDate(data.DateFrom)
	if err != nil {
		data.Error = `Please select a "Date From".`
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}
	to, err := models.NormalizeDate(data.DateTo)
	if err != nil {
		data.Error = `Please select a "Date To".`
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}

	err = h.client.SettleDebts(r.Context(), sess.Token, data.Operator, target.Operator, from, to)
	if errors.Is(err, observatory.ErrNoData) {
		data.Notice = "No debts were found to settle."
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}
	if err != nil {
		h.logger.Warn("debt settlement failed",
			zap.String("operator", data.Operator),
			zap.String("counterparty", target.Operator),
			zap.Error(err))
		data.Error = displayError(err)
		h.renderer.Render(w, http.StatusOK, "debts", data)
		return
	}

	data.Rows = remaining
	data.Total = models.Euro(models.DebtTotal(remaining))
	data.Notice = "Debt successfully settled!"
	h.renderer.Render(w, http.StatusOK, "debts", data)
}

func (h *DebtsHandlers) validate(sess session.Session, dateFrom, dateTo, operator string) (string, bool) {
	if dateFrom == "" {
		return `Please select a "Date From".`, false
	}
	if dateTo == "" {
		return `Please select a "Date To".`, false
	}
	if sess.IsAdmin(h.adminID) && operator == "" {
		return `Please provide an "Operator ID".`, false
	}
	return "", true
}
