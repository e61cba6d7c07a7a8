package epub

import (
	"encoding/xml"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	encryptionFilePath = "META-INF/encryption.xml"

	// sinfFilePath indicates Apple FairPlay DRM.
	sinfFilePath = "META-INF/sinf.xml"
)

// Font obfuscation algorithm URIs. These do not constitute DRM.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true, // IDPF font obfuscation
	"http://ns.adobe.com/pdf/enc#RC":     true, // Adobe font obfuscation
}

type xmlEncryption struct {
	XMLName       xml.Name           `xml:"encryption"`
	EncryptedData []xmlEncryptedData `xml:"EncryptedData"`
}

type xmlEncryptedData struct {
	EncryptionMethod struct {
		Algorithm string `xml:"Algorithm,attr"`
	} `xml:"EncryptionMethod"`
	CipherReference struct {
		URI string `xml:"URI,attr"`
	} `xml:"CipherData>CipherReference"`
}

// checkEncryption fails with ErrDRMProtected when the container declares
// encrypted resources other than obfuscated fonts.
func checkEncryption(a *Archive, logger *zap.Logger) error {
	if a.Has(sinfFilePath) {
		return errors.WithMessage(ErrDRMProtected, sinfFilePath)
	}
	if !a.Has(encryptionFilePath) {
		return nil
	}

	var enc xmlEncryption
	if _, err := a.ReadXML(encryptionFilePath, &enc); err != nil {
		return err
	}
	for _, ed := range enc.EncryptedData {
		algo := ed.EncryptionMethod.Algorithm
		if !fontObfuscationAlgorithms[algo] {
			return errors.WithMessagef(ErrDRMProtected, "%s encrypted with %s", ed.CipherReference.URI, algo)
		}
		logger.Warn("obfuscated font; it may not render correctly",
			zap.String("path", ed.CipherReference.URI))
	}
	return nil
}
