package handler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferRequestValidateReportsAllFields(t *testing.T) {
	req := transferRequest{SourceCardID: 0, DestinationCardID: -1, Amount: decimal.Zero}
	verr := req.Validate()
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 3)
	assert.Contains(t, verr.Fields, "source_card_id")
	assert.Contains(t, verr.Fields, "destination_card_id")
	assert.Contains(t, verr.Fields, "amount")

	valid := transferRequest{SourceCardID: 1, DestinationCardID: 2, Amount: decimal.RequireFromString("10.00")}
	assert.Nil(t, valid.Validate())
}

func TestCreateCardRequestValidate(t *testing.T) {
	req := createCardRequest{UserID: 0, InitialBalance: decimal.RequireFromString("-5")}
	verr := req.Validate()
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 2)

	valid := createCardRequest{UserID: 1, InitialBalance: decimal.Zero}
	assert.Nil(t, valid.Validate())
}

func TestUpdateCardStatusRequestValidate(t *testing.T) {
	req := updateCardStatusRequest{CardID: 0, Status: "FROZEN"}
	verr := req.Validate()
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 2)

	valid := updateCardStatusRequest{CardID: 5, Status: "BLOCKED"}
	assert.Nil(t, valid.Validate())
}

func TestCreateUserRequestValidate(t *testing.T) {
	req := createUserRequest{Username: "ab", Email: "not-an-email", Password: "123"}
	verr := req.Validate()
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 3)

	valid := createUserRequest{Username: "alice", Password: "secret123"}
	assert.Nil(t, valid.Validate())

	withEmail := createUserRequest{Username: "alice", Email: "alice@example.com", Password: "secret123"}
	assert.Nil(t, withEmail.Validate())
}

func TestLoginRequestValidate(t *testing.T) {
	verr := loginRequest{}.Validate()
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 2)

	assert.Nil(t, loginRequest{Username: "alice", Password: "x"}.Validate())
}

func TestRoleRequestValidate(t *testing.T) {
	verr := roleRequest{UserID: 0, Role: " "}.Validate()
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 2)

	assert.Nil(t, roleRequest{UserID: 1, Role: "ADMIN"}.Validate())
}
