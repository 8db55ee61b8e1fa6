package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"sozoku-docs/internal/models"

	"go.uber.org/zap"
)

const classifyPrompt = `この画像の書類タイプを判定してください。

以下の書類タイプの中から最も適切なものを選んでください：
1. LAND_BUILDING: 登記簿謄本、名寄帳、固定資産税通知書、評価証明書
2. LISTED_STOCK: 証券会社の報告書、株式・投資信託の残高証明書
3. OTHER_INVESTMENT: 出資証明書、非上場株式の証明書
4. PUBLIC_BOND: 国債・社債の証券、債券証明書
5. DEPOSIT: 銀行・郵便局の預金残高証明書
6. LIFE_INSURANCE: 生命保険証券、解約返戻金証明書
7. DEATH_RETIREMENT: 死亡退職金支払調書
8. OTHER_PROPERTY: 骨董品鑑定書、車検証、その他財産証明書
9. DEBT: 借入金残高証明書、未払金通知、病院の領収書
10. FUNERAL_EXPENSE: 葬儀費用領収書、お布施メモ
11. PASSBOOK: 通帳、取引履歴
12. PROCEDURE_DOC: 戸籍謄本・抄本、法定相続情報一覧図、印鑑証明書、住民票
13. UNKNOWN: 上記のどれにも該当しない書類

判定基準：
- 書類のタイトルやヘッダー情報を重視
- 表形式のデータがある場合、その内容を確認
- 金融機関名、保険会社名、不動産情報などの特定キーワードを確認

出力形式:
{
  "document_type": "書類タイプ名",
  "confidence": 0.0-1.0,
  "detected_keywords": ["検出キーワード1", "検出キーワード2"]
}`

// Classification is the classifier's best-effort verdict on one document.
type Classification struct {
	Category         models.DocumentCategory
	Confidence       float64
	DetectedKeywords []string
}

// ClassifierService determines a document's category by asking the vision
// model. Classification never fails past this boundary: any error from
// the collaborator or its output degrades to CategoryUnknown.
type ClassifierService struct {
	vision VisionClient
	logger *zap.Logger
}

func NewClassifierService(vision VisionClient, logger *zap.Logger) *ClassifierService {
	return &ClassifierService{
		vision: vision,
		logger: logger,
	}
}

func (s *ClassifierService) Classify(ctx context.Context, document []byte, mimeType string) Classification {
	unknown := Classification{Category: models.CategoryUnknown}

	raw, err := s.vision.GenerateJSON(ctx, classifyPrompt, document, mimeType)
	if err != nil {
		s.logger.Warn("書類分類エラー", zap.Error(err))
		return unknown
	}

	var result struct {
		DocumentType     string   `json:"document_type"`
		Confidence       float64  `json:"confidence"`
		DetectedKeywords []string `json:"detected_keywords"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		s.logger.Warn("書類分類エラー", zap.Error(err))
		return unknown
	}

	category, ok := models.ParseCategory(result.DocumentType)
	if !ok {
		s.logger.Warn("未知の書類タイプ", zap.String("document_type", result.DocumentType))
		return unknown
	}

	return Classification{
		Category:         category,
		Confidence:       result.Confidence,
		DetectedKeywords: result.DetectedKeywords,
	}
}

var renameSeq atomic.Uint32

// SuggestFilename proposes a rename for a classified document:
// {区分コード}{連番}_{区分名}_{内容}_{基準日}.pdf. The sequence is a
// process-local counter so two files classified back to back never get
// the same proposal.
func (s *ClassifierService) SuggestFilename(category models.DocumentCategory, content string, date string) string {
	seq := renameSeq.Add(1) % 1000

	dateStr := "R05"
	if date != "" {
		if dt, err := time.Parse("2006-01-02", date); err == nil {
			dateStr = "R" + dt.Format("060102")
		}
	}

	return fmt.Sprintf("%s%03d_%s_%s_%s.pdf", category, seq, category.Label(), content, dateStr)
}
