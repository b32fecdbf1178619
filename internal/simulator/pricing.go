package simulator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// pricedLine línea tarificada con su reparto.
type pricedLine struct {
	product    Product
	qty        decimal.Decimal
	total      decimal.Decimal
	subsidy    decimal.Decimal
	employee   decimal.Decimal
	qtyWith    decimal.Decimal
	qtyWithout decimal.Decimal
}

// quote tarificación completa de un pedido.
type quote struct {
	lines    []pricedLine
	total    decimal.Decimal
	subsidy  decimal.Decimal
	employee decimal.Decimal
}

type quoteItem struct {
	productID int64
	qty       decimal.Decimal
}

// price calcula importes y subvención por línea. La subvención nunca supera el importe de la línea.
func (b *Backend) price(items []quoteItem) (*quote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := &quote{total: decimal.Zero, subsidy: decimal.Zero, employee: decimal.Zero}
	for _, it := range items {
		p, ok := b.products[it.productID]
		if !ok {
			return nil, fmt.Errorf("unknown product %d", it.productID)
		}
		if !it.qty.IsPositive() {
			return nil, fmt.Errorf("invalid quantity for product %d", it.productID)
		}
		qtyWith := it.qty
		if p.SubsidyPerUnit.IsZero() {
			qtyWith = decimal.Zero
		} else if p.SubsidizedQty > 0 {
			qtyWith = decimal.Min(it.qty, decimal.NewFromInt(p.SubsidizedQty))
		}
		total := p.Price.Mul(it.qty).Round(2)
		subsidy := decimal.Min(p.SubsidyPerUnit.Mul(qtyWith), total).Round(2)
		line := pricedLine{
			product:    p,
			qty:        it.qty,
			total:      total,
			subsidy:    subsidy,
			employee:   total.Sub(subsidy),
			qtyWith:    qtyWith,
			qtyWithout: it.qty.Sub(qtyWith),
		}
		q.lines = append(q.lines, line)
		q.total = q.total.Add(line.total)
		q.subsidy = q.subsidy.Add(line.subsidy)
		q.employee = q.employee.Add(line.employee)
	}
	return q, nil
}
