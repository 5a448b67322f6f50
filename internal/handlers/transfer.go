package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"OTPKeeper/internal/service"
	"OTPKeeper/internal/transfer"
)

// TransferHandler обслуживает резервные копии, экспорт, импорт и журнал.
type TransferHandler struct {
	Auth   *service.Authenticator
	Logger *zap.SugaredLogger
}

// NewTransferHandler создаёт хендлер переноса
func NewTransferHandler(auth *service.Authenticator, logger *zap.SugaredLogger) *TransferHandler {
	return &TransferHandler{Auth: auth, Logger: logger}
}

// TransferRequest — путь к файлу и формат (только для export).
type TransferRequest struct {
	Path   string `json:"path"`
	Format string `json:"format,omitempty"`
}

// TransferResponse — код статуса ядра и его текстовое описание.
type TransferResponse struct {
	Status    transfer.Status `json:"status"`
	Reason    string          `json:"reason"`
	Count     *int            `json:"count,omitempty"`
	Conflicts *int            `json:"conflicts,omitempty"`
	Entries   []previewDTO    `json:"entries,omitempty"`
}

type previewDTO struct {
	Issuer        string  `json:"issuer"`
	Label         string  `json:"label"`
	LastUsed      *string `json:"last_used"`
	UsedFrequency int     `json:"used_frequency"`
	Favorite      bool    `json:"favorite"`
	Icon          *string `json:"icon"`
}

func (h *TransferHandler) decode(w http.ResponseWriter, r *http.Request) (TransferRequest, bool) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return req, false
	}
	return req, true
}

func (h *TransferHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	s := transfer.StatusOf(err)
	h.Logger.Warnw("transfer failed", "op", op, "token_id", tokenID(r), "status", int(s), "error", err)

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, transfer.ErrVaultEmpty):
		code = http.StatusConflict
	case s == transfer.StatusFileMissing:
		code = http.StatusNotFound
	case s == transfer.StatusJSONParse || s == transfer.StatusURIParse:
		code = http.StatusUnprocessableEntity
	}
	reason := s.Reason()
	if errors.Is(err, transfer.ErrVaultEmpty) {
		reason = err.Error()
	}
	writeJSON(w, code, TransferResponse{Status: s, Reason: reason})
}

func okResponse() TransferResponse {
	return TransferResponse{Status: transfer.StatusOK, Reason: transfer.StatusOK.Reason()}
}

func (h *TransferHandler) done(r *http.Request, op, path string) {
	h.Logger.Infow("transfer done", "op", op, "token_id", tokenID(r), "path", path)
}

// Backup зашифрованная копия в файл
func (h *TransferHandler) Backup(w http.ResponseWriter, r *http.Request) {
	req, valid := h.decode(w, r)
	if !valid {
		return
	}
	if err := h.Auth.Backup(req.Path); err != nil {
		h.fail(w, r, "backup", err)
		return
	}
	h.done(r, "backup", req.Path)
	writeJSON(w, http.StatusOK, okResponse())
}

// Export экспорт с открытыми секретами: format json|uri
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, valid := h.decode(w, r)
	if !valid {
		return
	}
	format, err := transfer.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Auth.Export(req.Path, format); err != nil {
		h.fail(w, r, "export", err)
		return
	}
	h.done(r, "export", req.Path)
	writeJSON(w, http.StatusOK, okResponse())
}

// Restore восстановление из резервной копии
func (h *TransferHandler) Restore(w http.ResponseWriter, r *http.Request) {
	req, valid := h.decode(w, r)
	if !valid {
		return
	}
	n, err := h.Auth.Restore(req.Path)
	if err != nil {
		h.fail(w, r, "restore", err)
		return
	}
	h.done(r, "restore", req.Path)
	resp := okResponse()
	resp.Count = &n
	writeJSON(w, http.StatusOK, resp)
}

// Import слияние файла с хранилищем
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	req, valid := h.decode(w, r)
	if !valid {
		return
	}
	n, err := h.Auth.Import(req.Path)
	if err != nil {
		h.fail(w, r, "import", err)
		return
	}
	h.done(r, "import", req.Path)
	resp := okResponse()
	resp.Conflicts = &n
	writeJSON(w, http.StatusOK, resp)
}

// Preview разбор файла импорта без изменений
func (h *TransferHandler) Preview(w http.ResponseWriter, r *http.Request) {
	req, valid := h.decode(w, r)
	if !valid {
		return
	}
	entries, err := h.Auth.ImportPreview(req.Path)
	if err != nil {
		h.fail(w, r, "preview", err)
		return
	}
	resp := okResponse()
	n := len(entries)
	resp.Count = &n
	resp.Entries = make([]previewDTO, 0, n)
	for _, e := range entries {
		dto := previewDTO{
			Issuer:        e.Record.Issuer(),
			Label:         e.Record.Label(),
			UsedFrequency: e.UsedFrequency,
			Favorite:      e.Favorite,
			Icon:          e.Icon,
		}
		if e.LastUsed != nil {
			s := e.LastUsed.String()
			dto.LastUsed = &s
		}
		resp.Entries = append(resp.Entries, dto)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Events последние события журнала: ?limit=N
func (h *TransferHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	events, err := h.Auth.Events(r.Context(), limit)
	if err != nil {
		h.Logger.Errorw("Events: journal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
