package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"guardia/pkg/models"
	"guardia/pkg/services"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return nil
}

func printPharmacy(w io.Writer, indent string, p models.Pharmacy) {
	fmt.Fprintf(w, "%s💊 %s\n", indent, p.Name)
	if p.Address != "" {
		fmt.Fprintf(w, "%s   📍 %s\n", indent, p.Address)
	}
	if p.Phone != "" {
		fmt.Fprintf(w, "%s   📞 %s\n", indent, p.Phone)
	}
	if p.OperatingHours != nil {
		fmt.Fprintf(w, "%s   🕘 %s\n", indent, p.OperatingHours)
	} else if p.Notes != "" {
		fmt.Fprintf(w, "%s   📝 %s\n", indent, p.Notes)
	}
}

func printPharmacies(w io.Writer, indent string, pharmacies []models.Pharmacy) {
	if len(pharmacies) == 0 {
		fmt.Fprintf(w, "%s(sin farmacia de guardia)\n", indent)
		return
	}
	for _, p := range pharmacies {
		printPharmacy(w, indent, p)
	}
}

func printSchedule(w io.Writer, s models.PharmacySchedule) {
	fmt.Fprintf(w, "📅 %s\n", s.Date.Long())
	if s.IsZoned() {
		for _, z := range s.Zones {
			fmt.Fprintf(w, "  %s\n", z.ZoneID)
			printPharmacies(w, "    ", z.Pharmacies)
		}
		return
	}
	for _, span := range s.Spans() {
		fmt.Fprintf(w, "  %s\n", span.Label())
		printPharmacies(w, "    ", s.Pharmacies(span))
	}
}

func printAnswer(w io.Writer, region models.Region, answer *services.DutyAnswer) {
	fmt.Fprintf(w, "%s · %s\n", region.Name, answer.At.Format("02/01/2006 15:04"))
	if !answer.Found {
		fmt.Fprintln(w, "No hay farmacia de guardia registrada para este momento.")
		if !answer.NextChange.IsZero() {
			fmt.Fprintf(w, "Próximo cambio de turno: %s\n", answer.NextChange.Format("02/01 15:04"))
		}
		return
	}

	title := answer.Span.Label()
	if answer.Zone != "" {
		title = answer.Zone
	}
	fmt.Fprintf(w, "%s · %s\n", answer.Date, title)
	printPharmacies(w, "  ", answer.Pharmacies)

	if closed := len(answer.Assigned) - len(answer.Pharmacies); closed > 0 {
		names := make([]string, 0, closed)
		for _, p := range answer.Assigned {
			if !containsPharmacy(answer.Pharmacies, p) {
				names = append(names, p.Name)
			}
		}
		fmt.Fprintf(w, "  Cerradas ahora: %s\n", strings.Join(names, ", "))
	}
	if !answer.NextChange.IsZero() {
		fmt.Fprintf(w, "Próximo cambio de turno: %s\n", answer.NextChange.Format("02/01 15:04"))
	}
}

func containsPharmacy(list []models.Pharmacy, p models.Pharmacy) bool {
	for _, q := range list {
		if q.Name == p.Name && q.Address == p.Address {
			return true
		}
	}
	return false
}
