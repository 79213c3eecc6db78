package mapper

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tastytracker/src/connectors"
	"tastytracker/src/model"
	"tastytracker/src/symbols"
)

// MapTransactionItem converts one raw broker ledger entry into a normalized
// Transaction. Missing or unparsable optional fields (quantity, price,
// strike, expiry) are expected on non-trade rows and map to nil, never to an
// error.
func MapTransactionItem(item connectors.TransactionItem, userID uint, credentialID *uint, accountNumber string) model.Transaction {
	txn := model.Transaction{
		UserID:          userID,
		CredentialID:    credentialID,
		AccountNumber:   accountNumber,
		ExternalID:      strconv.FormatInt(item.ID, 10),
		TransactionType: item.TransactionType,
		Symbol:          item.Symbol,
		Description:     item.Description,
		AssetType:       normalizeAssetType(item.InstrumentType),
		OptionType:      normalizeOptionType(item.PutCall),
		Quantity:        parseDecimalSafe("quantity", item.Quantity),
		Price:           parseDecimalSafe("price", item.Price),
		Amount:          parseDecimalSafe("net-value", item.NetValue),
		Strike:          parseDecimalSafe("strike-price", item.StrikePrice),
		Expiry:          parseDateSafe(item.ExpirationDate),
	}

	// Prefer the full execution timestamp; the transaction date is day
	// precision only.
	if ts := parseTimestampSafe(item.ExecutedAt); ts != nil {
		txn.TradeDate = ts
	} else {
		txn.TradeDate = parseDateSafe(item.TransactionDate)
	}

	fillOptionFieldsFromSymbol(&txn)

	return txn
}

// fillOptionFieldsFromSymbol backfills strike, expiry and option type from
// the option symbol when the broker row omits them. Some ledger endpoints
// send only the symbol for option fills.
func fillOptionFieldsFromSymbol(txn *model.Transaction) {
	if txn.AssetType != model.AssetTypeOption {
		return
	}
	if txn.Strike != nil && txn.Expiry != nil && txn.OptionType != "" {
		return
	}

	parsed, ok := symbols.ParseOptionSymbol(txn.Symbol)
	if !ok {
		return
	}

	if txn.Strike == nil {
		strike := parsed.Strike
		txn.Strike = &strike
	}
	if txn.Expiry == nil {
		expiry := parsed.Expiry
		txn.Expiry = &expiry
	}
	if txn.OptionType == "" {
		txn.OptionType = parsed.OptionType
	}
}

func normalizeAssetType(instrumentType string) string {
	switch strings.ToLower(strings.TrimSpace(instrumentType)) {
	case "equity", "stock":
		return model.AssetTypeStock
	case "equity option", "future option", "option":
		return model.AssetTypeOption
	default:
		return model.AssetTypeOther
	}
}

func normalizeOptionType(putCall string) string {
	switch strings.ToLower(strings.TrimSpace(putCall)) {
	case "c", "call":
		return model.OptionTypeCall
	case "p", "put":
		return model.OptionTypePut
	default:
		return ""
	}
}

func parseDecimalSafe(field, v string) *decimal.Decimal {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"mapper": "MapTransactionItem",
			"field":  field,
			"value":  v,
		}).WithError(err).Warn("Failed to parse numeric field, treating as absent")
		return nil
	}
	return &d
}

func parseDateSafe(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil
	}
	return &t
}

func parseTimestampSafe(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}
