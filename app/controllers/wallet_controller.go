package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/soukly/soukly/internal/pkg/database"
	"github.com/soukly/soukly/internal/pkg/ledger"
)

func ledgerService() *ledger.Service {
	return ledger.NewServiceFromDB(database.GetDB())
}

type walletAmountRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

// HandleGetWallet returns the caller's wallet, creating it on first use.
func HandleGetWallet(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	wallet, err := ledgerService().GetOrCreate(c.Context(), userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(wallet)
}

// HandleDeposit credits the caller's wallet.
func HandleDeposit(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req walletAmountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Invalid request body"})
	}
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}

	txn, err := ledgerService().Credit(c.Context(), userCtx.UserID, req.Amount, req.Reference)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

// HandleWithdraw debits the caller's wallet; the debit fails outright
// when the balance does not cover it.
func HandleWithdraw(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req walletAmountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Invalid request body"})
	}
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}

	txn, err := ledgerService().Withdraw(c.Context(), userCtx.UserID, req.Amount, req.Reference)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

// HandleWalletHistory returns the caller's transactions, newest first.
func HandleWalletHistory(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	offset, limit := pagination(c)
	transactions, err := ledgerService().History(c.Context(), userCtx.UserID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	wallet, err := ledgerService().GetOrCreate(c.Context(), userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"balance":      wallet.Balance,
		"transactions": transactions,
		"count":        len(transactions),
	})
}
