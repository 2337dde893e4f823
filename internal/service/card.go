package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aplatonov-me/Bank-REST/internal/models"
	"github.com/aplatonov-me/Bank-REST/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const cardNumberPrefix = "400000"

// CreateCard issues a new card for the given owner. Administrative
// operation. The card number is generated, encrypted and masked; the
// plaintext is never persisted and never returned.
func (s *Service) CreateCard(ctx context.Context, ownerID int64, initialBalance decimal.Decimal) (*models.CardResponse, error) {
	owner, err := s.users.UserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	count, err := s.cards.CountCardsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.config.MaxCardsPerUser) {
		return nil, fmt.Errorf("user %d holds %d cards: %w", ownerID, count, models.ErrCardLimitExceeded)
	}

	if initialBalance.IsNegative() {
		return nil, &models.ValidationError{Fields: map[string]string{"initial_balance": "must not be negative"}}
	}

	number, err := utils.GenerateCardNumber(cardNumberPrefix, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate card number: %w", err)
	}
	masked, err := utils.MaskCardNumber(number)
	if err != nil {
		return nil, fmt.Errorf("failed to mask card number: %w", err)
	}
	encrypted, err := s.enc.Encrypt(number)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt card number: %w", err)
	}

	card := &models.Card{
		Number:         encrypted,
		MaskedNumber:   masked,
		OwnerID:        owner.ID,
		OwnerUsername:  owner.Username,
		ExpirationDate: time.Now().AddDate(s.config.DefaultExpirationYears, 0, 0),
		Status:         models.CardStatusActive,
		Balance:        initialBalance,
	}
	if err := s.cards.CreateCard(ctx, card); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"card_id":  card.ID,
		"owner_id": owner.ID,
	}).Info("Card created")

	resp := models.NewCardResponse(card)
	return &resp, nil
}

// GetCard returns the projection of a card the principal may access.
func (s *Service) GetCard(ctx context.Context, id int64, principal models.Principal) (*models.CardResponse, error) {
	card, err := s.cards.CardByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccessCard(principal, card) {
		return nil, fmt.Errorf("you don't have permission to access this card: %w", models.ErrForbidden)
	}
	resp := models.NewCardResponse(card)
	return &resp, nil
}

// ListOwnedCards returns a page of the principal's own cards.
func (s *Service) ListOwnedCards(ctx context.Context, principal models.Principal, page, pageSize int) (*models.CardPage, error) {
	cards, total, err := s.cards.CardsByOwner(ctx, principal.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return cardPage(cards, total, page, pageSize), nil
}

// ListAllCards returns a page over every card. Administrative operation.
func (s *Service) ListAllCards(ctx context.Context, page, pageSize int) (*models.CardPage, error) {
	cards, total, err := s.cards.Cards(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return cardPage(cards, total, page, pageSize), nil
}

// UpdateCardStatus writes a new status on a card the principal may access.
// Any member of the status set is accepted; transitions are not validated
// and cards are never expired automatically.
func (s *Service) UpdateCardStatus(ctx context.Context, cardID int64, status models.CardStatus, principal models.Principal) error {
	card, err := s.cards.CardByID(ctx, cardID)
	if err != nil {
		return err
	}
	if !CanAccessCard(principal, card) {
		return fmt.Errorf("you don't have permission to access this card: %w", models.ErrForbidden)
	}

	if err := s.cards.UpdateCardStatus(ctx, cardID, status); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"card_id": cardID,
		"status":  status,
	}).Info("Card status updated")
	return nil
}

// DeleteCard hard-deletes a card. Administrative operation. A remaining
// balance is discarded; it is logged so the loss is at least observable.
func (s *Service) DeleteCard(ctx context.Context, id int64) error {
	card, err := s.cards.CardByID(ctx, id)
	if err != nil {
		return err
	}
	if card.Balance.IsPositive() {
		s.log.WithFields(logrus.Fields{
			"card_id": id,
			"balance": card.Balance,
		}).Warn("Deleting card with non-zero balance, funds are discarded")
	}

	if err := s.cards.DeleteCard(ctx, id); err != nil {
		return err
	}
	s.log.Infof("Card deleted: %d", id)
	return nil
}

// TransferFunds moves amount from one of the principal's cards to another.
// Precondition failures are distinct errors; the balance mutations commit
// atomically or not at all, so the sum across both cards is preserved.
func (s *Service) TransferFunds(ctx context.Context, sourceID, destID int64, amount decimal.Decimal, principal models.Principal) error {
	if !amount.IsPositive() {
		return &models.ValidationError{Fields: map[string]string{"amount": "must be positive"}}
	}
	if amount.GreaterThan(s.config.MaxTransferAmount) {
		return fmt.Errorf("maximum is %s: %w", s.config.MaxTransferAmount, models.ErrAmountExceedsLimit)
	}
	if sourceID == destID {
		return models.ErrSameCardTransfer
	}

	var sourceCard, destCard models.Card
	err := s.cards.TransferFunds(ctx, sourceID, destID, func(source, dest *models.Card) (decimal.Decimal, decimal.Decimal, error) {
		// Third-party transfers are not supported: both cards must belong
		// to the authenticated principal, admins included.
		if source.OwnerID != principal.ID {
			return decimal.Zero, decimal.Zero, fmt.Errorf("you don't have permission to transfer from this card: %w", models.ErrForbidden)
		}
		if dest.OwnerID != principal.ID {
			return decimal.Zero, decimal.Zero, fmt.Errorf("you don't have permission to transfer to this card: %w", models.ErrForbidden)
		}

		if source.Status != models.CardStatusActive {
			return decimal.Zero, decimal.Zero, fmt.Errorf("source card: %w", models.ErrCardNotActive)
		}
		if dest.Status != models.CardStatusActive {
			return decimal.Zero, decimal.Zero, fmt.Errorf("destination card: %w", models.ErrCardNotActive)
		}

		if source.Balance.LessThan(amount) {
			return decimal.Zero, decimal.Zero, models.ErrInsufficientFunds
		}

		sourceCard, destCard = *source, *dest
		return source.Balance.Sub(amount), dest.Balance.Add(amount), nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"amount": amount,
		"source": sourceCard.MaskedNumber,
		"dest":   destCard.MaskedNumber,
	}).Info("Transfer completed")

	s.notifyTransfer(sourceCard, destCard, amount)
	return nil
}

// notifyTransfer sends a receipt to the source card's owner when SMTP is
// configured and the owner has an email address. Fire and forget.
func (s *Service) notifyTransfer(source, dest models.Card, amount decimal.Decimal) {
	if s.notifier == nil {
		return
	}
	owner, err := s.users.UserByID(context.Background(), source.OwnerID)
	if err != nil || owner.Email == "" {
		return
	}
	go func() {
		newBalance := source.Balance.Sub(amount)
		if err := s.notifier.SendTransferReceipt(owner.Email, owner.Username,
			source.MaskedNumber, dest.MaskedNumber, amount, newBalance); err != nil {
			s.log.Errorf("Failed to send transfer receipt: %v", err)
		}
	}()
}

func cardPage(cards []models.Card, total int64, page, pageSize int) *models.CardPage {
	resp := &models.CardPage{
		Cards:      make([]models.CardResponse, 0, len(cards)),
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
	for i := range cards {
		resp.Cards = append(resp.Cards, models.NewCardResponse(&cards[i]))
	}
	return resp
}
