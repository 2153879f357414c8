package controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/models"
	"github.com/tealeg/xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var bookingExportHeaders = []string{
	"ID", "Status", "Service", "Price", "Customer", "Customer Phone", "Worker", "Worker Phone",
	"Address", "Date", "Time", "Payment", "Messages", "Created At", "Updated At",
}

// ExportBookings streams every booking matching ?status as an Excel sheet.
func (a *AdminController) ExportBookings(c *fiber.Ctx) error {
	filter, err := bookingFilter(c)
	if err != nil {
		return respondError(c, err)
	}
	bookings, _, err := models.ListAllBookings(a.db, filter)
	if err != nil {
		return respondError(c, err)
	}

	file, err := bookingsWorkbook(bookings)
	if err != nil {
		return respondError(c, err)
	}
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return respondError(c, err)
	}

	name := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+name)
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(buf.Bytes())
}

func bookingsWorkbook(bookings []models.Booking) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Bookings")
	if err != nil {
		return nil, err
	}

	header := sheet.AddRow()
	for _, h := range bookingExportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, b := range bookings {
		row := sheet.AddRow()
		row.AddCell().SetValue(b.ID)
		row.AddCell().SetValue(string(b.Status))

		serviceName, price := "", ""
		if b.Service != nil {
			serviceName, price = b.Service.Name, b.Service.Price.StringFixed(2)
		}
		row.AddCell().SetValue(serviceName)
		row.AddCell().SetValue(price)

		for _, u := range []*models.User{b.Customer, b.Worker} {
			if u == nil {
				row.AddCell().SetValue("")
				row.AddCell().SetValue("")
				continue
			}
			row.AddCell().SetValue(u.Name)
			row.AddCell().SetValue(u.Phone)
		}

		row.AddCell().SetValue(b.Location.Address)
		row.AddCell().SetValue(b.BookingDate)
		row.AddCell().SetValue(b.BookingTime)
		row.AddCell().SetValue(b.PaymentMethod.Type)
		row.AddCell().SetValue(len(b.ChatMessages))
		row.AddCell().SetValue(b.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(b.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}
