package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "sellerhub/internal/log"
	"sellerhub/internal/notify"
	"sellerhub/internal/services"
	"sellerhub/internal/validate"
)

type PayoutHandler struct {
	Payout *services.PayoutService
	Notify *notify.Notifier
}

// GET /api/v1/banks
func (h *PayoutHandler) Banks(c *fiber.Ctx) error {
	banks, err := h.Payout.ListBanks(c.UserContext())
	if err != nil {
		return fail(c, "payout.banks.fail", err)
	}
	return reply(c, fiber.StatusOK, "Banks retrieved", banks)
}

// GET /api/v1/bank-detail
func (h *PayoutHandler) Get(c *fiber.Ctx) error {
	d, err := h.Payout.GetBankDetail(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return failWith(c, "payout.detail.get.fail", err, map[int]string{fiber.StatusNotFound: "No bank detail saved"})
	}
	return reply(c, fiber.StatusOK, "", d)
}

// POST /api/v1/bank-detail verifies the account with the provider, then
// stores it as the caller's payout account.
func (h *PayoutHandler) Save(c *fiber.Ctx) error {
	u := currentUser(c)
	var req validate.BankDetail
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Normalize()
	if errs := validate.Struct(req); errs != nil {
		return invalid(c, errs)
	}
	d, created, err := h.Payout.SaveBankDetail(c.UserContext(), u.ID, services.SaveBankDetail{
		BankCode:      req.BankCode,
		BankName:      req.BankName,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		return failWith(c, "payout.detail.save.fail", err, map[int]string{fiber.StatusBadRequest: "Account not valid"})
	}
	applog.Audit(c, "payout.detail.save", map[string]any{"bank_code": d.BankCode, "created": created})
	h.Notify.BankDetailSaved(u, d, created)
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return reply(c, status, "Bank Detail saved successfully", d)
}
