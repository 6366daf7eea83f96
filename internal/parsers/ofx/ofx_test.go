package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rumor-ml/commons.systems/fintrack/internal/parser"
)

func TestName(t *testing.T) {
	p := NewParser()
	if got := p.Name(); got != "ofx" {
		t.Errorf("Name() = %q, want %q", got, "ofx")
	}
}

func TestCanParse(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		header   string
		expected bool
	}{
		{
			name:     "OFX file with OFXHEADER marker",
			path:     "test.ofx",
			header:   "OFXHEADER:100\nDATA:OFXSGML\n",
			expected: true,
		},
		{
			name:     "OFX file with XML header",
			path:     "test.ofx",
			header:   "<?xml version=\"1.0\"?><?OFX OFXHEADER=\"200\"?>\n",
			expected: true,
		},
		{
			name:     "QFX file with OFXHEADER marker",
			path:     "test.qfx",
			header:   "OFXHEADER:100\nDATA:OFXSGML\n",
			expected: true,
		},
		{
			name:     "QFX extension uppercase",
			path:     "test.QFX",
			header:   "<?OFX OFXHEADER=\"200\"?>\n",
			expected: true,
		},
		{
			name:     "OFX file without valid header",
			path:     "test.ofx",
			header:   "This is not OFX content",
			expected: false,
		},
		{
			name:     "CSV file",
			path:     "test.csv",
			header:   "Date,Description,Amount\n",
			expected: false,
		},
		{
			name:     "Wrong extension even with OFX content",
			path:     "test.pdf",
			header:   "OFXHEADER:100\n",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			got := p.CanParse(tt.path, []byte(tt.header))
			if got != tt.expected {
				t.Errorf("CanParse() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParse_SyntheticBankStatement(t *testing.T) {
	ofxContent := `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240101120000
<LANGUAGE>ENG
<FI>
<ORG>TESTBANK
<FID>12345
</FI>
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>9876543210
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101000000
<DTEND>20240131235959
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240105120000
<TRNAMT>-50.00
<FITID>TXN001
<NAME>Coffee Shop
<MEMO>Morning coffee
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240115120000
<TRNAMT>1000.00
<FITID>TXN002
<NAME>Paycheck
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>2000.00
<DTASOF>20240131235959
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

	p := NewParser()
	meta, err := parser.NewMetadata("/test/statement.ofx", time.Now())
	if err != nil {
		t.Fatalf("failed to create metadata: %v", err)
	}

	candidates, err := p.Parse(context.Background(), strings.NewReader(ofxContent), meta)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}

	c1 := candidates[0]
	if c1.Date != "2024-01-05" {
		t.Errorf("Candidate[0].Date = %q, want %q", c1.Date, "2024-01-05")
	}
	if c1.Vendor != "Coffee Shop" {
		t.Errorf("Candidate[0].Vendor = %q, want %q", c1.Vendor, "Coffee Shop")
	}
	if c1.Amount != 50.00 {
		t.Errorf("Candidate[0].Amount = %v, want 50.00", c1.Amount)
	}
	if c1.TransactionType != "debit" {
		t.Errorf("Candidate[0].TransactionType = %q, want %q", c1.TransactionType, "debit")
	}
	if c1.Category != "" {
		t.Errorf("Candidate[0].Category = %q, want empty", c1.Category)
	}

	c2 := candidates[1]
	if c2.Vendor != "Paycheck" {
		t.Errorf("Candidate[1].Vendor = %q, want %q", c2.Vendor, "Paycheck")
	}
	if c2.Amount != 1000.00 {
		t.Errorf("Candidate[1].Amount = %v, want 1000.00", c2.Amount)
	}
	if c2.TransactionType != "credit" {
		t.Errorf("Candidate[1].TransactionType = %q, want %q", c2.TransactionType, "credit")
	}
}

func TestParse_SyntheticCreditCard(t *testing.T) {
	ofxContent := `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240101120000
<LANGUAGE>ENG
<FI>
<ORG>TESTCREDITCARD
<FID>98765
</FI>
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101000000
<DTEND>20240131235959
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000
<TRNAMT>-25.99
<FITID>CC001
<NAME>Bookstore Purchase
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131235959
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

	p := NewParser()
	meta, err := parser.NewMetadata("/test/card.qfx", time.Now())
	if err != nil {
		t.Fatalf("failed to create metadata: %v", err)
	}

	candidates, err := p.Parse(context.Background(), strings.NewReader(ofxContent), meta)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.Vendor != "Bookstore Purchase" {
		t.Errorf("Candidate[0].Vendor = %q, want %q", c.Vendor, "Bookstore Purchase")
	}
	if c.Amount != 25.99 {
		t.Errorf("Candidate[0].Amount = %v, want 25.99", c.Amount)
	}
	if c.TransactionType != "debit" {
		t.Errorf("Candidate[0].TransactionType = %q, want %q", c.TransactionType, "debit")
	}
}

func TestParse_InvalidContent(t *testing.T) {
	p := NewParser()
	meta, err := parser.NewMetadata("/test/statement.ofx", time.Now())
	if err != nil {
		t.Fatalf("failed to create metadata: %v", err)
	}

	_, err = p.Parse(context.Background(), strings.NewReader("not an ofx document"), meta)
	if err == nil {
		t.Fatal("Parse() expected error for invalid content, got nil")
	}
}
