package dataset

// 国勢調査所得データセット（Census-Income KDD）のメタデータ。
// 7つの数値特徴量とウェイト列・ターゲット列を除き、残りの列はすべて
// カテゴリカル特徴量として扱う

// CensusTargetColumn は国勢調査データセットのターゲット列名
const CensusTargetColumn = "income_level"

// CensusWeightColumn は国勢調査データセットのサンプルウェイト列名。
// 特徴量からは除外される
const CensusWeightColumn = "instance_weight"

// CensusTargetLabels は国勢調査データセットのターゲットラベル。
// 元データの表記そのまま（先頭の空白を含む）
var CensusTargetLabels = []string{" - 50000.", " 50000+."}

// CensusNumericFeatures は国勢調査データセットの数値特徴量名
var CensusNumericFeatures = []string{
	"age",
	"wage_per_hour",
	"capital_gains",
	"capital_losses",
	"dividends_from_stocks",
	"num_persons_worked_for_employer",
	"weeks_worked_in_year",
}

// CensusHeader は国勢調査データセットの標準ヘッダーを返す。
// 列名は.namesファイルの属性名のスペースをアンダースコアに置換したもので、
// 末尾にターゲット列income_levelが付く
func CensusHeader() []string {
	return []string{
		"age",
		"class_of_worker",
		"detailed_industry_recode",
		"detailed_occupation_recode",
		"education",
		"wage_per_hour",
		"enroll_in_edu_inst_last_wk",
		"marital_stat",
		"major_industry_code",
		"major_occupation_code",
		"race",
		"hispanic_origin",
		"sex",
		"member_of_a_labor_union",
		"reason_for_unemployment",
		"full_or_part_time_employment_stat",
		"capital_gains",
		"capital_losses",
		"dividends_from_stocks",
		"tax_filer_stat",
		"region_of_previous_residence",
		"state_of_previous_residence",
		"detailed_household_and_family_stat",
		"detailed_household_summary_in_household",
		"instance_weight",
		"migration_code-change_in_msa",
		"migration_code-change_in_reg",
		"migration_code-move_within_reg",
		"live_in_this_house_1_year_ago",
		"migration_prev_res_in_sunbelt",
		"num_persons_worked_for_employer",
		"family_members_under_18",
		"country_of_birth_father",
		"country_of_birth_mother",
		"country_of_birth_self",
		"citizenship",
		"own_business_or_self_employed",
		"fill_inc_questionnaire_for_veteran's_admin",
		"veterans_benefits",
		"weeks_worked_in_year",
		"year",
		"income_level",
	}
}

// CensusSchema はヘッダーから国勢調査データセットのスキーマを導出する
//
// 数値特徴量リストに含まれる列はNumeric、instance_weightはWeight、
// income_levelはTarget、それ以外はすべてCategoricalになる
func CensusSchema(header []string) (*Schema, error) {
	numericSet := make(map[string]bool, len(CensusNumericFeatures))
	for _, name := range CensusNumericFeatures {
		numericSet[name] = true
	}

	roles := make([]ColumnRole, len(header))
	for i, name := range header {
		switch {
		case name == CensusTargetColumn:
			roles[i] = Target
		case name == CensusWeightColumn:
			roles[i] = Weight
		case numericSet[name]:
			roles[i] = Numeric
		default:
			roles[i] = Categorical
		}
	}

	return NewSchema(header, roles, CensusTargetLabels)
}
