package mcpserver

// AspectsFormatContract describes the coordinate and aspects file formats
// that LLM consumers should follow when calling the evaluation tools.
const AspectsFormatContract = `# WormBox Input Format Contract

## Coordinate files

Files in the data folder whose name ends with ` + "`" + `_data.txt` + "`" + `. One landmark per line:

` + "```" + `text
<image_filename>:<landmark_name><TAB><x><TAB><y>
` + "```" + `

- The image filename is everything before the first ` + "`" + `:` + "`" + `.
- Exactly three tab-separated fields; x and y are decimal numbers.
- A landmark name may repeat within an image at different coordinates
  (meristic counts rely on this). The same name at the same coordinates
  replaces the earlier record.
- Blank lines are ignored. Any other malformed line aborts the run.

## Aspects file

Conventionally ` + "`" + `config.txt` + "`" + ` in the data folder. One aspect per line, ` + "`" + `#` + "`" + ` starts a comment:

` + "```" + `text
<aspect_name>:<definition>
` + "```" + `

Three kinds of definition:

1. **Distance chain**: comma-separated landmark names, e.g. ` + "`" + `peri:1,2,3` + "`" + `.
   The value is the sum of the distances between consecutive landmarks.
   A missing landmark makes the value NA.
2. **Meristic count**: the single word ` + "`" + `count` + "`" + `, e.g. ` + "`" + `hooks:count` + "`" + `.
   The value is the number of landmarks named like the aspect.
3. **Algebraic**: an arithmetic expression over earlier aspects written as
   ` + "`" + `{name}` + "`" + ` placeholders, e.g. ` + "`" + `ratio:{peri}/{side}` + "`" + `.
   Operators: ` + "`" + `+ - * / %` + "`" + `, unary minus, parentheses.
   Every placeholder must name an aspect defined on an earlier line.
   NA inputs or division by zero make the value NA.

The same name may appear on several lines (pseudoreplicates); the report
shows their mean over non-NA values.

## Report

` + "```" + `text
image,<aspect names in first-occurrence order>
<one row per image, sorted by filename>
n / mean / std / pop_std / min / 1st_q / median / 3rd_q / max
` + "```" + `

Missing values are written as ` + "`" + `NA` + "`" + `.

## Example

` + "```" + `text
# coordinates (worms_data.txt)
A.tif:1	0	0
A.tif:2	3	4
A.tif:3	3	6

# aspects (config.txt)
peri:1,2,3
side:1,2
ratio:{peri}/{side}
` + "```" + `

gives ` + "`" + `peri = 7` + "`" + `, ` + "`" + `side = 5` + "`" + ` and ` + "`" + `ratio = 1.4` + "`" + ` for ` + "`" + `A.tif` + "`" + `.
`
