package service

import (
	"context"

	"github.com/aplatonov-me/Bank-REST/internal/config"
	"github.com/aplatonov-me/Bank-REST/internal/models"
	"github.com/aplatonov-me/Bank-REST/internal/repository"
	"github.com/aplatonov-me/Bank-REST/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type userRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	Users(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	DeleteUser(ctx context.Context, id int64) error
	AssignRole(ctx context.Context, userID int64, role string) error
	RemoveRole(ctx context.Context, userID int64, role string) error
}

type cardRepository interface {
	CreateCard(ctx context.Context, card *models.Card) error
	CardByID(ctx context.Context, id int64) (*models.Card, error)
	CountCardsByOwner(ctx context.Context, ownerID int64) (int64, error)
	CardsByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]models.Card, int64, error)
	Cards(ctx context.Context, limit, offset int) ([]models.Card, int64, error)
	UpdateCardStatus(ctx context.Context, id int64, status models.CardStatus) error
	DeleteCard(ctx context.Context, id int64) error
	CountExpiredActiveCards(ctx context.Context) (int64, error)
	TransferFunds(ctx context.Context, sourceID, destID int64, checks repository.TransferChecks) error
}

// transferNotifier delivers a receipt to the card owner after a committed
// transfer. Delivery is best-effort.
type transferNotifier interface {
	SendTransferReceipt(to, username, sourceMasked, destMasked string, amount, newBalance decimal.Decimal) error
}

// Service handles business logic
type Service struct {
	users    userRepository
	cards    cardRepository
	enc      *utils.Encryptor
	notifier transferNotifier
	log      *logrus.Logger
	config   *config.Config
}

// NewService initializes a new service. notifier may be nil when SMTP is
// not configured.
func NewService(users userRepository, cards cardRepository, enc *utils.Encryptor, notifier transferNotifier, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		users:    users,
		cards:    cards,
		enc:      enc,
		notifier: notifier,
		log:      log,
		config:   cfg,
	}
}
