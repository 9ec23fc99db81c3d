package services

import (
	"context"

	"github.com/softex1/tably-paket1/models"
	"github.com/softex1/tably-paket1/utils"
)

// CallGate authorizes a customer's call request against their session
// before handing it to the CallService. Each check short-circuits.
type CallGate struct {
	Sessions *SessionService
	Tables   *TableService
	Calls    *CallService
}

func NewCallGate(sessions *SessionService, tables *TableService, calls *CallService) *CallGate {
	return &CallGate{Sessions: sessions, Tables: tables, Calls: calls}
}

func (g *CallGate) Raise(ctx context.Context, token, code, rawType string) (*models.Call, error) {
	ok, err := g.Sessions.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.PermissionDenied("Session expired or invalid. Please rescan QR code.")
	}

	session, err := g.Sessions.GetSessionByToken(ctx, token)
	if utils.KindOf(err) == utils.KindNotFound {
		return nil, utils.PermissionDenied("Invalid session token.")
	}
	if err != nil {
		return nil, err
	}

	// the sweeper or another request may have changed it since validation
	if !session.Valid(g.Sessions.Now()) {
		if err := g.Sessions.ExpireSession(ctx, session); err != nil {
			return nil, err
		}
		return nil, utils.PermissionDenied("Session expired. Please rescan QR code.")
	}

	if session.Table.Code != code {
		return nil, utils.PermissionDenied("Session token does not belong to this table.")
	}

	table, err := g.Tables.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	callType, err := models.ParseCallType(rawType)
	if err != nil {
		return nil, utils.InvalidArgument("Invalid call type: %s", rawType)
	}

	return g.Calls.CreateCall(ctx, table, callType)
}
