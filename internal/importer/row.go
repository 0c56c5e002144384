package importer

import (
	"strings"

	"stand-catalog-service/internal/domain"
)

// SourceRow is one decoded spreadsheet row in fixed shape. Cells are trimmed;
// an empty string means the cell was blank or the column is absent.
type SourceRow struct {
	Line             int // 1-based row number in the worksheet, for diagnostics
	CategoryName     string
	ItemCode         string
	FrameSize        string
	GraphicSize      string
	PiecesPerCarton  string
	GrossWeight      string
	PackingSize      string
	Description      string
	Price            string
	DistributorPrice string
}

type field int

const (
	fieldCategoryName field = iota
	fieldItemCode
	fieldFrameSize
	fieldGraphicSize
	fieldPiecesPerCarton
	fieldGrossWeight
	fieldPackingSize
	fieldDescription
	fieldPrice
	fieldDistributorPrice
)

// Column describes one expected spreadsheet column.
type Column struct {
	Label       string
	Description string
	Example     string
	Sticky      bool
	field       field
	aliases     []string
}

// Columns lists the expected columns in template order. Headers are matched
// after Slugify, so case, accents and punctuation do not matter.
var Columns = []Column{
	{
		Label: "Category Group Name", field: fieldCategoryName, Sticky: true,
		Description: "Category the product belongs to. Created on first use.",
		Example:     "Stands Modulados",
		aliases:     []string{"category", "category group", "group name", "group", "categoria", "grupo", "nome do grupo"},
	},
	{
		Label: "Item Code", field: fieldItemCode, Sticky: true,
		Description: "Vendor item code. A placeholder is generated when no code is known.",
		Example:     "MS-3030",
		aliases:     []string{"item no", "item number", "item", "code", "codigo", "cod", "ref", "referencia"},
	},
	{
		Label: "Frame Size (mm)", field: fieldFrameSize, Sticky: true,
		Description: "Assembled frame dimensions.",
		Example:     "3000x3000x2500",
		aliases:     []string{"frame size", "frame", "tamanho da estrutura", "medida da estrutura"},
	},
	{
		Label: "Graphic Size (mm)", field: fieldGraphicSize, Sticky: true,
		Description: "Printable graphic dimensions.",
		Example:     "2980x2480",
		aliases:     []string{"graphic size", "graphic", "tamanho do grafico", "medida da grafica"},
	},
	{
		Label: "PCS/CTN", field: fieldPiecesPerCarton, Sticky: true,
		Description: "Pieces per carton (integer).",
		Example:     "4",
		aliases:     []string{"pcs ctn", "pcs carton", "pieces per carton", "qty ctn", "pecas por caixa"},
	},
	{
		Label: "G.W. (kg)", field: fieldGrossWeight, Sticky: true,
		Description: "Gross weight per carton.",
		Example:     "18.5",
		aliases:     []string{"g w", "gw", "gw kg", "gross weight", "gross weight kg", "peso bruto", "peso bruto kg"},
	},
	{
		Label: "Packing Size", field: fieldPackingSize, Sticky: true,
		Description: "Carton dimensions.",
		Example:     "120x40x40cm",
		aliases:     []string{"packing size cm", "meas", "carton size", "tamanho da embalagem", "medida da embalagem"},
	},
	{
		Label: "Description", field: fieldDescription,
		Description: "Product description. Rows without one are skipped.",
		Example:     "Backwall reta 3m com iluminação",
		aliases:     []string{"desc", "product description", "descricao"},
	},
	{
		Label: "Price", field: fieldPrice,
		Description: "Retail price (decimal, dot or comma separator).",
		Example:     "1890.00",
		aliases:     []string{"unit price", "preco", "preco unitario", "valor"},
	},
	{
		Label: "Distributor Price", field: fieldDistributorPrice,
		Description: "Distributor price (decimal).",
		Example:     "1450.00",
		aliases:     []string{"dealer price", "preco distribuidor", "preco revenda"},
	},
}

var headerFields = buildHeaderIndex()

func buildHeaderIndex() map[string]field {
	idx := make(map[string]field)
	for _, col := range Columns {
		idx[domain.Slugify(col.Label)] = col.field
		for _, alias := range col.aliases {
			idx[domain.Slugify(alias)] = col.field
		}
	}
	return idx
}

// mapHeader resolves each header cell to a field. Unknown headers map to -1.
// When two headers resolve to the same field the leftmost one wins.
func mapHeader(header []string) []field {
	mapped := make([]field, len(header))
	seen := make(map[field]bool)
	for i, h := range header {
		mapped[i] = -1
		f, ok := headerFields[domain.Slugify(h)]
		if !ok || seen[f] {
			continue
		}
		seen[f] = true
		mapped[i] = f
	}
	return mapped
}

func (r *SourceRow) set(f field, value string) {
	switch f {
	case fieldCategoryName:
		r.CategoryName = value
	case fieldItemCode:
		r.ItemCode = value
	case fieldFrameSize:
		r.FrameSize = value
	case fieldGraphicSize:
		r.GraphicSize = value
	case fieldPiecesPerCarton:
		r.PiecesPerCarton = value
	case fieldGrossWeight:
		r.GrossWeight = value
	case fieldPackingSize:
		r.PackingSize = value
	case fieldDescription:
		r.Description = value
	case fieldPrice:
		r.Price = value
	case fieldDistributorPrice:
		r.DistributorPrice = value
	}
}

// rowFromCells builds a SourceRow from raw cells using a mapped header. It
// reports false when every cell is blank.
func rowFromCells(line int, mapped []field, cells []string) (SourceRow, bool) {
	row := SourceRow{Line: line}
	nonBlank := false
	for i, cell := range cells {
		value := strings.TrimSpace(cell)
		if value == "" {
			continue
		}
		nonBlank = true
		if i < len(mapped) && mapped[i] >= 0 {
			row.set(mapped[i], value)
		}
	}
	return row, nonBlank
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
