package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"greentrain/internal/domain/models"
	"greentrain/internal/utils"
)

// DocsService renders printable e-tickets.
type DocsService struct {
	Tickets   TicketStore
	RequestID string
	Loader    func(id string) (models.Ticket, error)
}

// GenerateETicket renders a ticket as a PDF and returns bytes plus a
// download filename.
func (s DocsService) GenerateETicket(ticketID, userID string) ([]byte, string, error) {
	t, err := s.loadTicket(ticketID, userID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_eticket", fmt.Sprintf("ticket=%s", ticketID))
	return buildETicketPDF(t)
}

func (s DocsService) loadTicket(ticketID, userID string) (models.Ticket, error) {
	if s.Loader != nil {
		return s.Loader(ticketID)
	}
	return TicketService{Tickets: s.Tickets, RequestID: s.RequestID}.Get(ticketID, userID)
}

func buildETicketPDF(t models.Ticket) ([]byte, string, error) {
	trainName := t.TrainID
	if t.TrainSnapshot != nil {
		trainName = utils.FirstNonEmpty(t.TrainSnapshot.Name, t.TrainID)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Train        : %s (%s)", safe(trainName, "-"), safe(t.TrainID, "-")),
		fmt.Sprintf("Service Date : %s", safe(string(t.ServiceDate), "-")),
		fmt.Sprintf("Route        : %s -> %s", safe(t.FromStationName, "-"), safe(t.ToStationName, "-")),
		fmt.Sprintf("Departs      : %s", safe(t.DepartAbsLocal, "-")),
		fmt.Sprintf("Arrives      : %s", safe(t.ArrivalAbsLocal, "-")),
		fmt.Sprintf("Seat         : %s", safe(t.Seat.Label(), "-")),
		fmt.Sprintf("PNR          : %s", safe(t.PNRCode, "-")),
		fmt.Sprintf("Ticket No    : %s", safe(t.ID, "-")),
		fmt.Sprintf("Order No     : %s", safe(t.OrderID, "-")),
		fmt.Sprintf("Status       : %s", safe(string(t.Status), "-")),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Valid for one rider, one seat. Present the PNR or scan the QR code at boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ETICKET_%s_%s.pdf", safeFilenamePart(t.ID), safeFilenamePart(t.Seat.Label()))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
