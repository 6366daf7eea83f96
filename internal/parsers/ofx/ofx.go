// Package ofx provides OFX/QFX statement parsing for fintrack
package ofx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
	"github.com/rumor-ml/commons.systems/fintrack/internal/parser"
)

// Parser implements OFX/QFX parsing with a stateless design.
// The struct has no fields because OFX parsing requires no configuration
// state, making the parser safe for concurrent use without locking.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared OFX parser instance.
// Safe for concurrent use due to stateless design.
func NewParser() *Parser {
	return parserInstance
}

// getFileInfo returns a formatted file path string for error messages
func getFileInfo(meta *parser.Metadata) string {
	if meta != nil && meta.FilePath() != "" {
		return fmt.Sprintf(" from %s", meta.FilePath())
	}
	return ""
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "ofx"
}

// CanParse checks if this parser can handle the file based on extension and header
func (p *Parser) CanParse(path string, header []byte) bool {
	// Check file extension (.ofx or .qfx, case-insensitive)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".ofx" && ext != ".qfx" {
		return false
	}

	// Look for OFX header markers (both v1 SGML and v2 XML formats)
	headerUpper := strings.ToUpper(string(header))
	return strings.Contains(headerUpper, "OFXHEADER") ||
		strings.Contains(headerUpper, "<?OFX") ||
		strings.Contains(headerUpper, "<OFX>")
}

// Parse extracts candidate transactions from an OFX/QFX statement.
// Amounts are stored as magnitudes; the sign becomes the transaction type
// (negative is debit, zero or positive is credit). The category is left
// empty for the rules engine to fill.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) ([]domain.Candidate, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX content%s: %w", getFileInfo(meta), err)
	}

	// ofxgo.ParseResponse does not support context cancellation, so this
	// check only catches cancellation between file read and parsing.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	response, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file%s (%d bytes): %w", getFileInfo(meta), len(content), err)
	}

	if len(response.CreditCard) > 0 {
		return p.parseCreditCard(response, meta)
	}

	if len(response.Bank) > 0 {
		return p.parseBank(response, meta)
	}

	return nil, fmt.Errorf("no supported statement type found in OFX file%s. Expected a credit card (CREDITCARDMSGSRSV1) or bank (BANKMSGSRSV1) statement (creditcard: %d, bank: %d, investment: %d)",
		getFileInfo(meta), len(response.CreditCard), len(response.Bank), len(response.InvStmt))
}

// parseCreditCard parses credit card statement
func (p *Parser) parseCreditCard(resp *ofxgo.Response, meta *parser.Metadata) ([]domain.Candidate, error) {
	ccStmt, ok := resp.CreditCard[0].(*ofxgo.CCStatementResponse)
	if !ok {
		return nil, fmt.Errorf("failed to type assert credit card statement: expected *ofxgo.CCStatementResponse, got %T", resp.CreditCard[0])
	}

	if ccStmt.BankTranList == nil {
		return nil, fmt.Errorf("missing transaction list in credit card statement%s", getFileInfo(meta))
	}

	return p.extractCandidates(ccStmt.BankTranList)
}

// parseBank parses bank account statement
func (p *Parser) parseBank(resp *ofxgo.Response, meta *parser.Metadata) ([]domain.Candidate, error) {
	bankStmt, ok := resp.Bank[0].(*ofxgo.StatementResponse)
	if !ok {
		return nil, fmt.Errorf("failed to type assert bank statement: expected *ofxgo.StatementResponse, got %T", resp.Bank[0])
	}

	if bankStmt.BankTranList == nil {
		return nil, fmt.Errorf("missing transaction list in bank statement%s", getFileInfo(meta))
	}

	return p.extractCandidates(bankStmt.BankTranList)
}

// extractCandidates converts OFX transactions to candidates
func (p *Parser) extractCandidates(tranList *ofxgo.TransactionList) ([]domain.Candidate, error) {
	candidates := make([]domain.Candidate, 0, len(tranList.Transactions))

	for i, txn := range tranList.Transactions {
		candidate, err := extractCandidate(txn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction at index %d: %w", i, err)
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// extractCandidate extracts common transaction fields from an OFX transaction
func extractCandidate(txn ofxgo.Transaction) (domain.Candidate, error) {
	// Use posted date; if not available, fallback to user date
	date := txn.DtPosted.Time
	if date.IsZero() {
		date = txn.DtUser.Time
	}
	if date.IsZero() {
		return domain.Candidate{}, fmt.Errorf("transaction %s missing both posted date and user date", txn.FiTID.String())
	}

	// Use Name field for vendor; if empty, fallback to Memo field
	vendor := strings.TrimSpace(txn.Name.String())
	if vendor == "" {
		vendor = strings.TrimSpace(txn.Memo.String())
	}
	if vendor == "" {
		return domain.Candidate{}, fmt.Errorf("transaction %s missing both name and memo fields", txn.FiTID.String())
	}

	// Typical financial transactions (2 decimal places) fit within float64
	// precision, so the exactness flag is ignored here.
	amount, _ := txn.TrnAmt.Float64()

	transactionType := domain.TypeCredit
	if amount < 0 {
		transactionType = domain.TypeDebit
	}

	return domain.Candidate{
		Date:            domain.FormatDate(date),
		Vendor:          vendor,
		Amount:          math.Abs(amount),
		TransactionType: transactionType,
	}, nil
}
