package jobs

import (
	"fmt"

	"amenpay/internal/domain/transaction"
	"amenpay/internal/pkg/i18n"
)

// Templated bilingual content for payment lifecycle notifications. Kept next
// to the job so the wording and the decision path evolve together.

func i18nPaymentSuccessTitle(l i18n.Locale) string {
	return i18n.Message{
		AR: "تمت عملية الدفع",
		EN: "Payment completed",
	}.Resolve(l)
}

func i18nPaymentSuccess(l i18n.Locale, tx *transaction.Transaction) string {
	if l == i18n.LocaleEnglish {
		return fmt.Sprintf("Your payment of %.2f %s was received. Reference: %s",
			tx.Amount, tx.Currency, tx.ReferenceID)
	}
	return fmt.Sprintf("تم استلام دفعتك بقيمة %.2f %s. رقم العملية: %s",
		tx.Amount, tx.Currency, tx.ReferenceID)
}

func i18nPaymentFailureTitle(l i18n.Locale) string {
	return i18n.Message{
		AR: "فشلت عملية الدفع",
		EN: "Payment failed",
	}.Resolve(l)
}

func i18nPaymentFailure(l i18n.Locale, tx *transaction.Transaction) string {
	if l == i18n.LocaleEnglish {
		return fmt.Sprintf("Your payment of %.2f %s could not be processed. Reference: %s",
			tx.Amount, tx.Currency, tx.ReferenceID)
	}
	return fmt.Sprintf("تعذر إتمام عملية الدفع بقيمة %.2f %s. رقم العملية: %s",
		tx.Amount, tx.Currency, tx.ReferenceID)
}
