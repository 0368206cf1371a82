package utils

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/wneessen/go-mail"

	"primeur_back_end/internal/models"
)

func SendConfirmationEmail(to, subject, htmlBody string, pdfAttachment []byte) error {
	msg := mail.NewMsg()

	if err := msg.From("commandes@primeur.app"); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		msg.AttachReader("recu_primeur.pdf", bytes.NewReader(pdfAttachment))
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📧 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 8px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%d %s</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%.2f€</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%.2f€</td>
			</tr>`, item.Name, item.Quantity, item.Unit, item.Price, item.Price*float64(item.Quantity))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f4f8f4; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #2e7d32;">🛒 Votre commande est confirmée</h2>
		<p>Bonjour,</p>
		<p>Merci pour votre commande n°%s. Nos primeurs préparent vos produits frais.</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #e8f5e9;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
		</table>

		<p style="font-size: 18px; font-weight: bold; text-align: right;">Total : %.2f€</p>
		<p style="color: #666; font-size: 13px;">Présentez le QR code de votre commande au retrait en magasin.</p>
	</div>
</body>
</html>`, order.ID, itemsHTML, order.Total)
}

var statusLabels = map[string]string{
	"processing": "est en préparation 🧑‍🍳",
	"in_transit": "est en route 🚚",
	"delivered":  "a été livrée ✅",
	"cancelled":  "a été annulée ❌",
}

// GenerateStatusUpdateHTML génère le HTML de notification de changement de statut
func GenerateStatusUpdateHTML(order models.Order, status string) string {
	label, ok := statusLabels[strings.ToLower(status)]
	if !ok {
		label = "a changé de statut : " + status
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Suivi de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f4f8f4; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #2e7d32;">Suivi de votre commande</h2>
		<p>Bonjour,</p>
		<p>Votre commande n°%s %s.</p>
		<p style="font-size: 16px; font-weight: bold;">Total : %.2f€</p>
	</div>
</body>
</html>`, order.ID, label, order.Total)
}
