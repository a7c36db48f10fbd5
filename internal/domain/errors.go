/**
 * @description
 * This file defines the domain-level failures raised by the policy engines.
 * Each is a distinct sentinel so callers can discriminate with errors.Is and
 * map each to a distinct user-visible outcome. Infrastructure failures are
 * ordinary wrapped errors and must never be folded into these.
 */
package domain

import "errors"

// ErrDebtPastDue signals that a required obligation is more than 30 days
// overdue, which blocks new-account creation.
var ErrDebtPastDue = errors.New("debt is past due, cannot create new account until paid")

// ErrIncompatibleAccountType signals an operation against an account/client
// combination that policy forbids.
var ErrIncompatibleAccountType = errors.New("account type is not compatible with the client or operation")

// ErrCreditCardLimitReached signals a debt-increasing operation that would
// exceed the account's credit limit.
var ErrCreditCardLimitReached = errors.New("credit limit exceeded")

// ErrOverpaidAssetAccount signals a repayment larger than the outstanding
// balance.
var ErrOverpaidAssetAccount = errors.New("account debt is less than amount to pay")

// ErrAccountDoesNotExist signals that the referenced account id or code has
// no backing record, or is not the expected category.
var ErrAccountDoesNotExist = errors.New("account does not exist")

// ErrDuplicateAccountCode is returned by the store when a generated account
// code collides with an existing one; the engines regenerate and retry.
var ErrDuplicateAccountCode = errors.New("account code already exists")
