package service

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
)

// CardsReportXML renders every card projection as an XML document.
// Administrative operation; only display-safe fields are included.
func (s *Service) CardsReportXML(ctx context.Context) ([]byte, error) {
	const reportPageSize = 500

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("cards")

	for page := 1; ; page++ {
		resp, err := s.ListAllCards(ctx, page, reportPageSize)
		if err != nil {
			return nil, err
		}
		for _, card := range resp.Cards {
			el := root.CreateElement("card")
			el.CreateAttr("id", fmt.Sprintf("%d", card.ID))
			el.CreateElement("maskedNumber").SetText(card.MaskedNumber)
			el.CreateElement("owner").SetText(card.OwnerUsername)
			el.CreateElement("expirationDate").SetText(card.ExpirationDate)
			el.CreateElement("status").SetText(string(card.Status))
			el.CreateElement("balance").SetText(card.Balance.StringFixed(2))
		}
		if page >= resp.TotalPages {
			break
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}

// ReportExpiredCards logs how many ACTIVE cards are past their expiration
// date. Run on a schedule; card status is never changed here.
func (s *Service) ReportExpiredCards(ctx context.Context) {
	count, err := s.cards.CountExpiredActiveCards(ctx)
	if err != nil {
		s.log.Errorf("Failed to count expired cards: %v", err)
		return
	}
	if count > 0 {
		s.log.Warnf("%d active cards are past their expiration date", count)
		return
	}
	s.log.Debug("No active cards past expiration")
}
