package utils

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// GenerateOrderQR génère le QR de retrait d'une commande (PNG brut)
func GenerateOrderQR(orderID, userID string) ([]byte, error) {
	payload := fmt.Sprintf("primeur:order:%s:user:%s", orderID, userID)
	return qrcode.Encode(payload, qrcode.Medium, 256)
}

// GenerateOrderQRBase64 génère le QR en base64 prêt à mettre dans <img src="...">
func GenerateOrderQRBase64(orderID, userID string) (string, error) {
	png, err := GenerateOrderQR(orderID, userID)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
