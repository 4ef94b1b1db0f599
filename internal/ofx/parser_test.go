package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data in the SGML style most banks still export.
const sampleBankOFX = `OFXHEADER:100
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
<SEVERITY>Info
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
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
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.49
<FITID>2024011501
<NAME>RECURRING PAYMENT NETFLIX.COM
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240116120000[0:GMT]
<TRNAMT>-10.99
<FITID>2024011602
<NAME>SPOTIFY USA
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	parser := NewParser()

	txns, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX), "user-1")
	require.NoError(t, err)
	require.Len(t, txns, 2)

	first := txns[0]
	assert.Equal(t, "2024011501", first.ID)
	assert.Equal(t, "user-1", first.UserID)
	assert.Equal(t, "1234567890", first.AccountID)
	assert.Equal(t, "NETFLIX.COM", first.MerchantName)
	assert.InDelta(t, 15.49, first.Amount, 0.001)
	assert.Equal(t, 2024, first.Date.Year())
	assert.Equal(t, time.January, first.Date.Month())
	assert.NotEmpty(t, first.Hash)

	second := txns[1]
	assert.Equal(t, "SPOTIFY USA", second.MerchantName)
	assert.InDelta(t, 10.99, second.Amount, 0.001)
}

func TestParseFileInvalid(t *testing.T) {
	parser := NewParser()

	_, err := parser.ParseFile(context.Background(), strings.NewReader("this is not ofx"), "user-1")
	assert.Error(t, err)
}

func TestPreprocessOFX(t *testing.T) {
	parser := NewParser()

	t.Run("uppercases severity", func(t *testing.T) {
		got := parser.preprocessOFX("<SEVERITY>Info</SEVERITY>")
		assert.Equal(t, "<SEVERITY>INFO</SEVERITY>", got)
	})

	t.Run("uppercases severity without closing tag", func(t *testing.T) {
		got := parser.preprocessOFX("<SEVERITY>Info\n</STATUS>")
		assert.Equal(t, "<SEVERITY>INFO\n</STATUS>", got)
	})

	t.Run("closes dangling tags", func(t *testing.T) {
		got := parser.preprocessOFX("<OFX>\n<BANKMSGSRSV1\n</OFX>")
		assert.Contains(t, got, "<BANKMSGSRSV1>")
	})

	t.Run("trims leading blank lines", func(t *testing.T) {
		got := parser.preprocessOFX("\n\n  OFXHEADER:100")
		assert.True(t, strings.HasPrefix(got, "OFXHEADER"))
	})
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name  string
		txn   ofxgo.Transaction
		want  string
	}{
		{
			name: "payee preferred over name",
			txn: ofxgo.Transaction{
				Name:  "POS PURCHASE 1234",
				Payee: &ofxgo.Payee{Name: "Netflix"},
			},
			want: "Netflix",
		},
		{
			name: "bank prefix stripped",
			txn:  ofxgo.Transaction{Name: "POS PURCHASE NETFLIX.COM"},
			want: "NETFLIX.COM",
		},
		{
			name: "memo used when name is generic",
			txn:  ofxgo.Transaction{Name: "DEBIT", Memo: "HULU 877-8244858"},
			want: "HULU 877-8244858",
		},
		{
			name: "date prefix stripped",
			txn:  ofxgo.Transaction{Name: "01/15 SPOTIFY USA"},
			want: "SPOTIFY USA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parser.extractMerchantName(tt.txn))
		})
	}
}
