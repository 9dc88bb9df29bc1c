package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/sadopc/fretes/internal/freight"
)

// Action names understood by the backend.
const (
	ActionLogin          = actionLogin
	ActionInit           = "init"
	ActionPending        = "getPendentesGestor"
	ActionProcess        = "processarPendentes"
	ActionHistory        = "getHistoricoGestor"
	ActionReport         = "getRelatorioGestor"
	ActionAddClient      = "addCliente"
	ActionAddFleet       = "addFrota"
	ActionSaveEntry      = "salvarFreteMotorista"
	ActionDriverEntries  = "getLancamentosMotorista"
	defaultSubmitMessage = "Lançamento enviado com sucesso."
)

// LoginResult is the reply to a successful login.
type LoginResult struct {
	Token string       `json:"token"`
	User  freight.User `json:"currentUser"`
	freight.InitData
}

// InitResult is the reply to init: the refreshed profile and lookup lists.
type InitResult struct {
	User freight.User `json:"currentUser"`
	freight.InitData
}

// History is the manager's decided entries.
type History struct {
	Approved []freight.Entry `json:"aprovados"`
	Rejected []freight.Entry `json:"reprovados"`
}

func decode[T any](action string, raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		err = fmt.Errorf("%w (%s data): %v", ErrInvalidResponse, action, err)
		log.Printf("rpc %s invalid response: %v", action, err)
		return out, err
	}
	return out, nil
}

// Login authenticates with e-mail and PIN. The e-mail is normalized to
// lower case.
func (c *Client) Login(ctx context.Context, email, pin string) (LoginResult, error) {
	raw, err := c.Call(ctx, ActionLogin, Payload{
		"email": strings.ToLower(strings.TrimSpace(email)),
		"pin":   strings.TrimSpace(pin),
	})
	if err != nil {
		return LoginResult{}, err
	}
	res, err := decode[LoginResult](ActionLogin, raw)
	if err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: login without token", ErrInvalidResponse)
	}
	return res, nil
}

// Init fetches the current profile and lookup lists. A nil auth uses the
// client's credentials; rehydration passes the stored ones explicitly.
func (c *Client) Init(ctx context.Context, auth *Auth) (InitResult, error) {
	payload := Payload{}
	if auth != nil {
		payload["auth"] = *auth
	}
	raw, err := c.Call(ctx, ActionInit, payload)
	if err != nil {
		return InitResult{}, err
	}
	return decode[InitResult](ActionInit, raw)
}

// PendingEntries lists entries awaiting a manager decision.
func (c *Client) PendingEntries(ctx context.Context) ([]freight.Entry, error) {
	raw, err := c.Call(ctx, ActionPending, Payload{})
	if err != nil {
		return nil, err
	}
	return decode[[]freight.Entry](ActionPending, raw)
}

// ProcessPending submits a decision batch and returns how many rows the
// backend processed.
func (c *Client) ProcessPending(ctx context.Context, decisions []freight.Decision) (int, error) {
	raw, err := c.Call(ctx, ActionProcess, Payload{"decisoes": decisions})
	if err != nil {
		return 0, err
	}
	res, err := decode[struct {
		Processed int `json:"processed"`
	}](ActionProcess, raw)
	if err != nil {
		return 0, err
	}
	return res.Processed, nil
}

func (c *Client) ManagerHistory(ctx context.Context) (History, error) {
	raw, err := c.Call(ctx, ActionHistory, Payload{})
	if err != nil {
		return History{}, err
	}
	return decode[History](ActionHistory, raw)
}

func (c *Client) ManagerReport(ctx context.Context) (freight.ManagerReport, error) {
	raw, err := c.Call(ctx, ActionReport, Payload{})
	if err != nil {
		return freight.ManagerReport{}, err
	}
	return decode[freight.ManagerReport](ActionReport, raw)
}

func (c *Client) AddClient(ctx context.Context, name string) error {
	_, err := c.Call(ctx, ActionAddClient, Payload{"nome": strings.TrimSpace(name)})
	return err
}

func (c *Client) AddFleet(ctx context.Context, number string) error {
	_, err := c.Call(ctx, ActionAddFleet, Payload{"numero": strings.TrimSpace(number)})
	return err
}

// SaveDriverEntry sends a validated submission in the flat field layout and
// returns the confirmation text to show.
func (c *Client) SaveDriverEntry(ctx context.Context, sub freight.Submission) (string, error) {
	raw, err := c.Call(ctx, ActionSaveEntry, entryPayload(sub))
	if err != nil {
		return "", err
	}
	res, err := decode[struct {
		Message string `json:"message"`
	}](ActionSaveEntry, raw)
	if err != nil || res.Message == "" {
		return defaultSubmitMessage, nil
	}
	return res.Message, nil
}

func entryPayload(sub freight.Submission) Payload {
	return Payload{
		"data":       sub.Date,
		"frota":      sub.Fleet,
		"cliente":    sub.Client,
		"tipo":       sub.Type,
		"valor":      sub.Value.InexactFloat64(),
		"container1": sub.Containers[0],
		"container2": sub.Containers[1],
		"container3": sub.Containers[2],
		"container4": sub.Containers[3],
		"obs":        sub.Note,
	}
}

// driverEntries accepts both spellings the backend has used for the
// pending and approved lists.
type driverEntries struct {
	Pendentes   []freight.Entry `json:"pendentes"`
	Aprovacao   []freight.Entry `json:"aprovacao"`
	Aprovados   []freight.Entry `json:"aprovados"`
	Lancamentos []freight.Entry `json:"lancamentos"`
	Reprovados  []freight.Entry `json:"reprovados"`
}

// DriverEntries lists the caller's own entries split by status.
func (c *Client) DriverEntries(ctx context.Context) (freight.Partitions, error) {
	raw, err := c.Call(ctx, ActionDriverEntries, Payload{})
	if err != nil {
		return freight.Partitions{}, err
	}
	res, err := decode[driverEntries](ActionDriverEntries, raw)
	if err != nil {
		return freight.Partitions{}, err
	}
	p := freight.Partitions{
		Pending:  res.Pendentes,
		Approved: res.Aprovados,
		Rejected: res.Reprovados,
	}
	if p.Pending == nil {
		p.Pending = res.Aprovacao
	}
	if p.Approved == nil {
		p.Approved = res.Lancamentos
	}
	return p, nil
}
