package backend

import (
	"time"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/repository"
)

const (
	feedPageSize   = 100
	bankTimeLayout = "2006-01-02 15:04:05"
)

type BankFeed struct {
	Records      []models.BankTransaction
	TotalRecords int64
}

// BankService serves a stand-in for the bank transaction feed.
type BankService struct {
	repo *repository.BankRepository
	now  func() time.Time
}

func NewBankService(repo *repository.BankRepository) *BankService {
	return &BankService{repo: repo, now: time.Now}
}

func (s *BankService) Transactions() (*BankFeed, error) {
	records, total, err := s.repo.Latest(feedPageSize)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.BankTransaction{}
	}
	return &BankFeed{Records: records, TotalRecords: total}, nil
}

// Record stores an incoming transfer, stamping it when the caller left When empty.
func (s *BankService) Record(tx models.BankTransaction) (*models.BankTransaction, error) {
	if tx.Amount <= 0 {
		return nil, badRequest("Amount must be positive")
	}
	tx.ID = 0
	if tx.When == "" {
		tx.When = s.now().Format(bankTimeLayout)
	}
	if err := s.repo.Create(&tx); err != nil {
		return nil, err
	}
	return &tx, nil
}
