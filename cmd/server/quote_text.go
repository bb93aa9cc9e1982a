package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/frete/internal/store"
	"github.com/Simplici0/frete/internal/tariff"
)

func money(v decimal.Decimal) string { return "R$ " + v.StringFixed(2) }

func kilos(v decimal.Decimal) string { return v.StringFixed(2) + " kg" }

// renderQuoteText formats a stored quote for pasting into chat or email.
func renderQuoteText(d store.QuoteDetail) string {
	res := d.Result
	b := res.Breakdown

	var sb strings.Builder
	fmt.Fprintf(&sb, "Cotação %s\n", d.Reference)
	if d.Title != "" {
		fmt.Fprintf(&sb, "%s\n", d.Title)
	}
	fmt.Fprintf(&sb, "Data: %s\n\n", d.CreatedAt.Format("02/01/2006 15:04"))

	fmt.Fprintf(&sb, "Produto: %s\n", d.ProductName)
	fmt.Fprintf(&sb, "Destino: %s/%s (%s)\n", d.DestinationName, d.State, res.Category)
	fmt.Fprintf(&sb, "Tabela: versão %d\n", res.VersionID)
	fmt.Fprintf(&sb, "Valor da NF: %s\n\n", money(res.InvoiceValue))

	fmt.Fprintf(&sb, "Peso real: %s\n", kilos(res.Weights.Real))
	fmt.Fprintf(&sb, "Peso cubado: %s\n", kilos(res.Weights.Cubed))
	fmt.Fprintf(&sb, "Peso taxado: %s\n\n", kilos(res.Weights.Taxable))

	fmt.Fprintf(&sb, "Frete peso: %s\n", money(b.BasePrice))
	if b.ExcessAmount.IsPositive() {
		fmt.Fprintf(&sb, "Excedente (%s): %s\n", kilos(b.ExcessWeight), money(b.ExcessAmount))
	}
	fmt.Fprintf(&sb, "Pedágio: %s\n", money(b.Toll))
	fmt.Fprintf(&sb, "F-valor: %s\n", money(b.FFee))
	fmt.Fprintf(&sb, "GRIS: %s\n", money(b.GRIS))
	fmt.Fprintf(&sb, "Subtotal: %s\n", money(res.Totals.Subtotal))
	fmt.Fprintf(&sb, "ICMS: %s\n", money(b.ICMS))
	for _, line := range res.SpecialTaxes {
		amount := b.TDA
		if line.Kind == tariff.TaxTRT {
			amount = b.TRT
		}
		label := string(line.Kind)
		if line.Description != "" {
			label += " - " + line.Description
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, money(amount))
	}
	fmt.Fprintf(&sb, "Total: %s\n", money(res.Totals.Total))

	if res.Delivery.Known() {
		fmt.Fprintf(&sb, "\nPrazo de entrega: %s", res.Delivery.String())
		if res.Delivery.Transport != "" {
			fmt.Fprintf(&sb, " (%s)", strings.ToLower(res.Delivery.Transport))
		}
		sb.WriteString("\n")
	}
	if d.Notes != "" {
		fmt.Fprintf(&sb, "\nObservações: %s\n", d.Notes)
	}

	return sb.String()
}
