package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"OTPKeeper/internal/model"
	"OTPKeeper/internal/service"
)

// AccountHandler обслуживает CRUD аккаунтов, коды и сортировку.
type AccountHandler struct {
	Auth   *service.Authenticator
	Logger *zap.SugaredLogger
}

// NewAccountHandler создаёт хендлер аккаунтов
func NewAccountHandler(auth *service.Authenticator, logger *zap.SugaredLogger) *AccountHandler {
	return &AccountHandler{Auth: auth, Logger: logger}
}

// CreateRequest — либо uri, либо тройка issuer/label/secret.
type CreateRequest struct {
	URI    string `json:"uri,omitempty"`
	Issuer string `json:"issuer,omitempty"`
	Label  string `json:"label,omitempty"`
	Secret string `json:"secret,omitempty"`
}

// UpdateRequest — частичное обновление; отсутствующие поля не меняются.
type UpdateRequest struct {
	Issuer   *string `json:"issuer"`
	Label    *string `json:"label"`
	Favorite *bool   `json:"favorite"`
	Icon     *string `json:"icon"`
}

// List список аккаунтов без секретов
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts := h.Auth.Accounts()
	out := make([]accountDTO, 0, len(accounts))
	for i, a := range accounts {
		out = append(out, toDTO(i, a))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create добавление аккаунта из URI или из полей
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Create: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var (
		acct model.Account
		ok   bool
		err  error
	)
	if req.URI != "" {
		acct, ok, err = h.Auth.CreateFromURI(req.URI)
	} else {
		acct, ok, err = h.Auth.CreateAccount(model.NewOtpRecord(req.Issuer, req.Label, req.Secret))
	}
	if err != nil {
		h.Logger.Warnw("Create: rejected", "token_id", tokenID(r), "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "account with this issuer and label already exists")
		return
	}
	h.Logger.Infow("account created", "token_id", tokenID(r), "issuer", acct.Issuer)
	// новая запись всегда вставляется в начало списка
	writeJSON(w, http.StatusCreated, toDTO(0, acct))
}

// Update частичное обновление аккаунта по индексу
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	idx, err := indexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	acct, err := h.Auth.Account(idx)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if req.Issuer != nil {
		acct.Issuer = *req.Issuer
	}
	if req.Label != nil {
		acct.Label = *req.Label
	}
	if req.Favorite != nil {
		acct.Favorite = *req.Favorite
	}
	if req.Icon != nil {
		acct.Icon = req.Icon
	}

	ok, err := h.Auth.UpdateAccount(idx, acct)
	if err != nil {
		h.Logger.Warnw("Update: rejected", "token_id", tokenID(r), "index", idx, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "account with this issuer and label already exists")
		return
	}
	writeJSON(w, http.StatusOK, toDTO(idx, acct))
}

// Delete удаление аккаунта по индексу
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	idx, err := indexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	if _, err := h.Auth.DeleteAt(idx); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	h.Logger.Infow("account deleted", "token_id", tokenID(r), "index", idx)
	w.WriteHeader(http.StatusNoContent)
}

// Code текущий код и оставшееся время
func (h *AccountHandler) Code(w http.ResponseWriter, r *http.Request) {
	idx, err := indexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	code, err := h.Auth.CodeAt(idx)
	if err != nil {
		h.Logger.Errorw("Code: generation failed", "index", idx, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, code)
}

// URI otpauth-URI аккаунта (содержит открытый секрет)
func (h *AccountHandler) URI(w http.ResponseWriter, r *http.Request) {
	idx, err := indexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	acct, err := h.Auth.Account(idx)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	uri, err := h.Auth.URI(acct)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uri": uri})
}

// Consume отметка использования кода
func (h *AccountHandler) Consume(w http.ResponseWriter, r *http.Request) {
	idx, err := indexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	acct, err := h.Auth.ConsumeCode(idx)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toDTO(idx, acct))
}

// Sort сортировка списка: ?by=alpha|recency|frequency
func (h *AccountHandler) Sort(w http.ResponseWriter, r *http.Request) {
	by := service.SortOrder(r.URL.Query().Get("by"))
	if err := h.Auth.Sort(by); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
