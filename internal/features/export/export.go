package export

import (
	"bytes"
	"fmt"

	"wa-dashboard-go/internal/webhook"

	"github.com/xuri/excelize/v2"
)

const (
	EndpointsSheet = "Endpoints"
	ContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var endpointHeaders = []string{"ID", "Name", "Event", "Platform", "URL", "Active", "Created At"}

// EndpointsFileName returns the download name for an export taken at dateStr
func EndpointsFileName(dateStr string) string {
	return fmt.Sprintf("ECOMMERCE_WEBHOOKS_%s.xlsx", dateStr)
}

// EndpointsWorkbook renders the endpoints as an Excel workbook
func EndpointsWorkbook(endpoints []webhook.Endpoint) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EndpointsSheet); err != nil {
		return nil, err
	}

	for i, header := range endpointHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(EndpointsSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, e := range endpoints {
		row := []interface{}{
			e.ID,
			e.Name,
			string(e.Event),
			string(e.Platform),
			e.URL,
			e.Active,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(EndpointsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
