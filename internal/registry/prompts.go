package registry

import (
	"fmt"
	"time"
)

// PassbookPrompt builds the passbook extraction instruction. The date
// hints and the handwriting policy depend on the request, so the prompt
// is generated instead of stored in the schema table.
func PassbookPrompt(now time.Time, includeHandwriting bool) string {
	currentYear := now.Year()
	const reiwaStartYear = 2019
	currentReiwaYear := currentYear - reiwaStartYear + 1

	handwritingInstruction := "手書きと思われる文字や数字は無視し、印字された文字を中心に認識してください。"
	if includeHandwriting {
		handwritingInstruction = "手書きの文字や数字も認識に含めてください。"
	}

	return fmt.Sprintf(`この通帳の画像から取引明細を抽出してください。画像の最下部まで、全ての行を注意深く読み取ってください。
日本語の文字認識、特に濁点（゛）や半濁点（゜）の識別は非常に重要です。
例えば、「シ」と「ジ」、「ハ」と「バ」と「パ」、「カ」と「ガ」、「タ」と「ダ」などを正確に見分けてください。

以下のJSONスキーマに厳密に従って結果を返してください。
各取引について、取引日（yyyy-mm-dd形式、不明な場合はnull）、出金額（半角整数、該当なければ0）、入金額（半角整数、該当なければ0）、残高（半角整数、不明な場合はnull）、取引内容（文字列、摘要など、不明な場合は空文字）を抽出してください。

日付の年は西暦 (yyyy-mm-dd形式) でお願いします。
現在の西暦年は %d年 (令和%d年) です。

金額が「***」や「---」のようにマスクされている場合は0としてください。
繰り越し行など、出金額と入金額が両方とも0になるような実質的な取引ではない行は抽出対象外としてください。
%s

出力形式:
[
  {
    "取引日": "yyyy-mm-dd",
    "出金額": 0,
    "入金額": 0,
    "残高": 0,
    "取引内容": ""
  }
]`, currentYear, currentReiwaYear, handwritingInstruction)
}

const depositPrompt = `この残高証明書の画像から以下の情報を抽出してJSON形式で返してください：
- 金融機関名
- 支店名
- 預金種類（普通預金、定期預金等）
- 口座番号
- 残高
- 既経過利子（定期預金の場合）

出力形式:
{
  "financial_institution": "金融機関名",
  "branch": "支店名",
  "account_type": "預金種類",
  "account_number": "口座番号",
  "balance": 残高金額,
  "accrued_interest": 既経過利子
}`

const stockPrompt = `この証券会社の報告書・残高証明書から以下の情報を抽出してJSON形式で返してください：
- 銘柄名
- 証券会社名
- 支店名
- 評価額
- 株式数または口数

出力形式:
{
  "stock_name": "銘柄名",
  "securities_company": "証券会社名",
  "branch_name": "支店名",
  "valuation": 評価額,
  "quantity": 株式数または口数
}`

const insurancePrompt = `この保険証券・解約返戻金証明書から以下の情報を抽出してJSON形式で返してください：
- 保険会社名
- 証券番号
- 契約者
- 被保険者
- 保険金受取人
- 受取年月日
- 保険金額
- 解約返戻金額

出力形式:
{
  "insurance_company": "保険会社名",
  "policy_number": "証券番号",
  "policyholder": "契約者",
  "insured": "被保険者",
  "beneficiary": "保険金受取人",
  "receipt_date": "受取年月日",
  "insurance_amount": 保険金額,
  "surrender_value": 解約返戻金額
}`

const landBuildingPrompt = `この登記簿謄本・名寄帳・固定資産税通知書から以下の情報を抽出してJSON形式で返してください：
- 所在地（都道府県、市区町村、大字・丁目）
- 地番
- 家屋番号
- 登記地目（登記簿の場合）
- 課税地目（名寄帳等の場合）
- 持分
- 地積
- 敷地権割合（マンションの場合）
- 固定資産税評価額
- 所有者名または名義人名（可能な場合）

出力形式:
{
  "prefecture": "都道府県",
  "city": "市区町村",
  "address": "大字・丁目",
  "lot_number": "地番",
  "house_number": "家屋番号",
  "registered_land_category": "登記地目",
  "taxed_land_category": "課税地目",
  "ownership_ratio": "持分",
  "area": 地積,
  "site_right_ratio": "敷地権割合",
  "fixed_asset_tax_value": 固定資産税評価額,
  "owner_names": ["所有者名1", "所有者名2"]
}`
